package server

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/undeconstructed/solarquest/comms"
	"github.com/undeconstructed/solarquest/game"
	"github.com/undeconstructed/solarquest/gamedata"
	"github.com/undeconstructed/solarquest/journal"
)

type seqDice struct {
	mu    sync.Mutex
	rolls []int
}

func (d *seqDice) Roll(pips int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.rolls) == 0 {
		return 1
	}
	r := d.rolls[0]
	d.rolls = d.rolls[1:]
	return r
}

func newTestSession(t *testing.T, opts Options) *Session {
	t.Helper()
	if opts.Game == nil {
		g, err := gamedata.Default()
		if err != nil {
			t.Fatalf("default game: %v", err)
		}
		opts.Game = g
	}
	if opts.Dice == nil {
		opts.Dice = &seqDice{rolls: []int{1, 2}}
	}
	return NewSession(opts)
}

// runSession starts the game loop, and stops it when the test ends.
func runSession(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := s.Run(ctx); err != nil {
			t.Errorf("run: %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func expect(t *testing.T, ch <-chan comms.Message, head string) comms.Message {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				t.Fatalf("channel closed waiting for %s", head)
			}
			if msg.Type() == head {
				return msg
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", head)
		}
	}
}

func expectEvent(t *testing.T, ch <-chan comms.Message, typ game.EventType) game.Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				t.Fatalf("channel closed waiting for %s", typ)
			}
			if msg.Type() != "event" {
				continue
			}
			var ev game.Event
			if err := comms.Decode(msg, &ev); err != nil {
				t.Fatalf("bad event: %v", err)
			}
			if ev.Type == typ {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", typ)
		}
	}
}

func errCode(err error) string {
	if err == nil {
		return ""
	}
	return comms.WrapError(err).Code
}

// seated makes a session with one connection per name, and starts it.
func seated(t *testing.T, s *Session, names ...string) ([]string, []<-chan comms.Message) {
	t.Helper()
	var ids []string
	var chs []<-chan comms.Message
	for i, name := range names {
		id, ch := s.Connect()
		expect(t, ch, "hello")
		p, err := s.Join(id, name)
		if err != nil || p != i {
			t.Fatalf("join %s: %d %v", name, p, err)
		}
		ids = append(ids, id)
		chs = append(chs, ch)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	return ids, chs
}

func TestJoinAndStart(t *testing.T) {
	s := newTestSession(t, Options{})

	c1, ch1 := s.Connect()
	msg := expect(t, ch1, "hello")
	var hello comms.Hello
	if err := comms.Decode(msg, &hello); err != nil || hello.Conn != c1 {
		t.Fatalf("hello: %+v %v", hello, err)
	}
	c2, ch2 := s.Connect()
	expect(t, ch2, "hello")

	if _, err := s.Join(c1, ""); errCode(err) != "BADREQUEST" {
		t.Errorf("joined with no name: %v", err)
	}
	if p, err := s.Join(c1, "ann"); err != nil || p != 0 {
		t.Fatalf("join ann: %d %v", p, err)
	}
	if p, err := s.Join(c2, "bob"); err != nil || p != 1 {
		t.Fatalf("join bob: %d %v", p, err)
	}

	if err := s.Act(c1, comms.ActRequest{Player: 0, Type: "no_pre_roll"}); errCode(err) != "NOTSTARTED" {
		t.Errorf("act before start: %v", err)
	}

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Start(); errCode(err) != "STARTED" {
		t.Errorf("started twice: %v", err)
	}
	if _, err := s.Join(c2, "cat"); errCode(err) != "STARTED" {
		t.Errorf("joined late: %v", err)
	}

	var snap game.Snapshot
	if err := comms.Decode(expect(t, ch1, "snapshot"), &snap); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Players) != 2 || snap.Players[1].Name != "bob" || snap.Players[0].Node != "earth" {
		t.Errorf("snapshot: %+v", snap)
	}

	var players []int
	if err := comms.Decode(expect(t, ch2, "players"), &players); err != nil {
		t.Fatalf("players: %v", err)
	}
	if len(players) != 1 || players[0] != 1 {
		t.Errorf("bob holds %v", players)
	}

	st := s.Status()
	if !st.Started || st.Over || len(st.Seats) != 2 || st.Connections != 2 {
		t.Errorf("status: %+v", st)
	}
}

func TestStart_noPlayers(t *testing.T) {
	s := newTestSession(t, Options{})
	c1, _ := s.Connect()
	s.Join(c1, "ann")

	if err := s.Start(); errCode(err) != "NOPLAYERS" {
		t.Errorf("started alone: %v", err)
	}
	if s.Status().Started {
		t.Errorf("started anyway")
	}
}

func TestJoin_full(t *testing.T) {
	s := newTestSession(t, Options{})
	c1, _ := s.Connect()
	for i := 0; i < 8; i++ {
		if _, err := s.Join(c1, "crew"); err != nil {
			t.Fatalf("join %d: %v", i, err)
		}
	}
	if _, err := s.Join(c1, "stowaway"); !errors.Is(err, comms.ErrSessionFull) {
		t.Errorf("ninth seat: %v", err)
	}
}

func TestAct(t *testing.T) {
	s := newTestSession(t, Options{})
	ids, chs := seated(t, s, "ann", "bob")
	runSession(t, s)

	ev := expectEvent(t, chs[0], game.EventPreRoll)
	if ev.Player == nil || *ev.Player != 0 {
		t.Fatalf("prompted %v", ev.Player)
	}

	if err := s.Act(ids[1], comms.ActRequest{Player: 0, Type: "no_pre_roll"}); !errors.Is(err, comms.ErrNotSeated) {
		t.Errorf("acted for someone else: %v", err)
	}
	if err := s.Act("nobody", comms.ActRequest{Player: 0, Type: "no_pre_roll"}); errCode(err) != "UNKNOWNPLAYER" {
		t.Errorf("acted from nowhere: %v", err)
	}
	if err := s.Act(ids[0], comms.ActRequest{Player: 0, Type: "warp_drive"}); errCode(err) != "BADMESSAGE" {
		t.Errorf("nonsense accepted: %v", err)
	}
	if err := s.Act(ids[0], comms.ActRequest{Player: 0, Type: "players_dropped"}); errCode(err) != "BADMESSAGE" {
		t.Errorf("client dropped players: %v", err)
	}

	if err := s.Act(ids[0], comms.ActRequest{Player: 0, Type: "no_pre_roll"}); err != nil {
		t.Fatalf("act: %v", err)
	}
	ev = expectEvent(t, chs[1], game.EventRolled)
	var dice game.Dice
	raw, _ := json.Marshal(ev.Value)
	if err := json.Unmarshal(raw, &dice); err != nil || dice.Total() != 3 {
		t.Errorf("rolled %v %v", ev.Value, err)
	}
}

func TestAct_refusedByEngine(t *testing.T) {
	s := newTestSession(t, Options{})
	ids, chs := seated(t, s, "ann", "bob")
	runSession(t, s)

	expectEvent(t, chs[1], game.EventPreRoll)

	// bob is seated, but it's ann's turn, so only bob hears about it
	if err := s.Act(ids[1], comms.ActRequest{Player: 1, Type: "no_pre_roll"}); err != nil {
		t.Fatalf("act: %v", err)
	}
	ev := expectEvent(t, chs[1], game.EventInvalidState)
	raw, _ := json.Marshal(ev.Value)
	var info game.ErrorInfo
	if err := json.Unmarshal(raw, &info); err != nil || info.Code != "NOTYOURTURN" {
		t.Errorf("refusal: %v %v", ev.Value, err)
	}
}

func TestAct_tooFast(t *testing.T) {
	s := newTestSession(t, Options{ActionRate: 0.001, ActionBurst: 1})
	ids, chs := seated(t, s, "ann", "bob")
	runSession(t, s)
	expectEvent(t, chs[0], game.EventPreRoll)

	if err := s.Act(ids[0], comms.ActRequest{Player: 0, Type: "no_pre_roll"}); err != nil {
		t.Fatalf("first act: %v", err)
	}
	if err := s.Act(ids[0], comms.ActRequest{Player: 0, Type: "no_post_roll"}); !errors.Is(err, comms.ErrTooFast) {
		t.Errorf("second act: %v", err)
	}
}

func TestResync(t *testing.T) {
	s := newTestSession(t, Options{})
	c0, _ := s.Connect()
	if err := s.Resync(c0); errCode(err) != "NOTSTARTED" {
		t.Errorf("resync before anything: %v", err)
	}
	s.Disconnect(c0)

	_, chs := seated(t, s, "ann", "bob")
	runSession(t, s)
	expectEvent(t, chs[0], game.EventPreRoll)

	if n := s.Status().Connections; n != 2 {
		t.Fatalf("connections: %d", n)
	}

	c, ch := s.Connect()
	expect(t, ch, "hello")
	expectEvent(t, ch, game.EventPreRoll)

	if err := s.Resync(c); err != nil {
		t.Fatalf("resync: %v", err)
	}
	expectEvent(t, ch, game.EventPreRoll)
}

func TestLateJoiner(t *testing.T) {
	s := newTestSession(t, Options{})
	seated(t, s, "ann", "bob")
	runSession(t, s)

	c, ch := s.Connect()
	expect(t, ch, "hello")
	var snap game.Snapshot
	if err := comms.Decode(expect(t, ch, "snapshot"), &snap); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Players) != 2 || snap.State != game.StatePreRoll {
		t.Errorf("snapshot: %+v", snap)
	}

	// watchers hold no players
	if err := s.Act(c, comms.ActRequest{Player: 0, Type: "no_pre_roll"}); !errors.Is(err, comms.ErrNotSeated) {
		t.Errorf("watcher acted: %v", err)
	}
}

func TestDisconnect_beforeStart(t *testing.T) {
	s := newTestSession(t, Options{})
	c1, _ := s.Connect()
	c2, ch2 := s.Connect()
	s.Join(c1, "ann")
	s.Join(c2, "bob")
	s.Join(c1, "ann2")

	s.Disconnect(c1)
	s.Disconnect(c1)

	st := s.Status()
	if len(st.Seats) != 1 || st.Seats[0] != "bob" || st.Connections != 1 {
		t.Errorf("status: %+v", st)
	}

	expect(t, ch2, "hello")
	s.Disconnect(c2)
	if _, ok := <-ch2; ok {
		t.Errorf("channel left open")
	}
}

func TestDisconnect_afterStart(t *testing.T) {
	s := newTestSession(t, Options{})
	ids, chs := seated(t, s, "ann", "bob", "cat")
	runSession(t, s)
	expectEvent(t, chs[0], game.EventPreRoll)

	s.Disconnect(ids[2])

	ev := expectEvent(t, chs[0], game.EventDropped)
	if ev.Player == nil || *ev.Player != 2 {
		t.Errorf("dropped %v", ev.Player)
	}

	snap, err := s.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !snap.Players[2].GameOver || snap.Players[0].GameOver {
		t.Errorf("players: %+v", snap.Players)
	}
}

func TestDisconnect_lastOpponent(t *testing.T) {
	s := newTestSession(t, Options{})
	ids, chs := seated(t, s, "ann", "bob")
	runSession(t, s)
	expectEvent(t, chs[0], game.EventPreRoll)

	s.Disconnect(ids[1])

	ev := expectEvent(t, chs[0], game.EventWon)
	if ev.Player == nil || *ev.Player != 0 {
		t.Errorf("winner %v", ev.Player)
	}
	expectEvent(t, chs[0], game.EventGameOver)

	select {
	case <-s.engine.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("engine still running")
	}
	if !s.Status().Over {
		t.Errorf("not over")
	}
	if err := s.Act(ids[0], comms.ActRequest{Player: 0, Type: "no_pre_roll"}); errCode(err) != "GAMEOVER" {
		t.Errorf("acted after the end: %v", err)
	}
}

func TestText(t *testing.T) {
	s := newTestSession(t, Options{})
	c1, ch1 := s.Connect()
	_, ch2 := s.Connect()

	s.Text(c1, "hello all")

	var text comms.Text
	if err := comms.Decode(expect(t, ch2, "text"), &text); err != nil {
		t.Fatalf("text: %v", err)
	}
	if text.From != c1 || text.Text != "hello all" {
		t.Errorf("text: %+v", text)
	}
	expect(t, ch1, "text")
}

func TestText_dropsLagging(t *testing.T) {
	s := newTestSession(t, Options{})
	ids, chs := seated(t, s, "ann", "bob")

	s.mu.Lock()
	bob := s.conns[ids[1]]
	s.mu.Unlock()
	for full := false; !full; {
		select {
		case bob.downCh <- comms.Message{Head: "filler"}:
		default:
			full = true
		}
	}

	s.Text(ids[0], "hello all")
	if st := s.Status(); st.Connections != 1 {
		t.Errorf("connections: %d", st.Connections)
	}

	runSession(t, s)
	ev := expectEvent(t, chs[0], game.EventDropped)
	if ev.Player == nil || *ev.Player != 1 {
		t.Errorf("dropped: %+v", ev)
	}
}

func TestJournal(t *testing.T) {
	dir := t.TempDir()
	s := newTestSession(t, Options{JournalDir: dir})
	ids, chs := seated(t, s, "ann", "bob")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	expectEvent(t, chs[0], game.EventPreRoll)
	s.Act(ids[0], comms.ActRequest{Player: 0, Type: "no_pre_roll"})
	expectEvent(t, chs[0], game.EventRolled)

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}

	path := filepath.Join(dir, s.ID()+".jsonl.zst")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("no journal: %v", err)
	}
	entries, err := journal.Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(entries) < 2 || entries[0].Event.Type != game.EventPreRoll {
		t.Fatalf("entries: %+v", entries)
	}
	found := false
	for _, e := range entries {
		if e.Event.Type == game.EventRolled {
			found = true
		}
	}
	if !found {
		t.Errorf("roll not journalled")
	}
}
