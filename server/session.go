package server

import (
	"context"
	"sort"
	"sync"

	"github.com/undeconstructed/solarquest/comms"
	"github.com/undeconstructed/solarquest/game"
	"github.com/undeconstructed/solarquest/gamedata"
	"github.com/undeconstructed/solarquest/journal"
	"github.com/undeconstructed/solarquest/rules"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Options for a session.
type Options struct {
	Game *gamedata.Game
	Seed int64
	// Dice are for tests; normally the engine rolls its own
	Dice game.Roller

	JournalDir  string
	ActionRate  float64
	ActionBurst int
}

// Session is one game and everyone connected to it. Players take seats
// before the game starts; after that a connection can only act for the
// players it holds.
type Session struct {
	id   string
	opts Options
	log  zerolog.Logger

	mu        sync.Mutex
	conns     map[string]*clientBundle
	seats     []seat
	started   bool
	engine    *game.Engine
	journal   *journal.Writer
	lastEvent *game.Event

	startCh chan struct{}
}

type clientBundle struct {
	id      string
	downCh  chan comms.Message
	players map[int]bool
	limiter *rate.Limiter
}

type seat struct {
	name string
	conn string
}

// Status is the REST view of a session.
type Status struct {
	ID          string   `json:"id"`
	Game        string   `json:"game"`
	Started     bool     `json:"started"`
	Over        bool     `json:"over"`
	Seats       []string `json:"seats"`
	Connections int      `json:"connections"`
}

func NewSession(opts Options) *Session {
	if opts.ActionRate <= 0 {
		opts.ActionRate = 5
	}
	if opts.ActionBurst < 1 {
		opts.ActionBurst = 10
	}
	id := uuid.NewString()
	return &Session{
		id:      id,
		opts:    opts,
		log:     log.With().Str("session", id).Logger(),
		conns:   map[string]*clientBundle{},
		startCh: make(chan struct{}),
	}
}

func (s *Session) ID() string {
	return s.id
}

// Run waits for the game to start, then runs it until it's over or the
// context ends.
func (s *Session) Run(ctx context.Context) error {
	defer s.closeJournal()

	s.log.Info().Msg("session waiting")

	select {
	case <-ctx.Done():
		return nil
	case <-s.startCh:
	}

	err := s.engine.Run(ctx)
	if err == context.Canceled {
		return nil
	}
	s.log.Info().Err(err).Msg("game finished")
	return err
}

// Connect registers a new connection and returns its id and where its
// messages will arrive. The channel is closed when the connection is
// dropped.
func (s *Session) Connect() (string, <-chan comms.Message) {
	id := uuid.NewString()
	c := &clientBundle{
		id:      id,
		downCh:  make(chan comms.Message, 100),
		players: map[int]bool{},
		limiter: rate.NewLimiter(rate.Limit(s.opts.ActionRate), s.opts.ActionBurst),
	}

	s.mu.Lock()
	s.conns[id] = c
	s.sendLocked(c, "hello", comms.Hello{Conn: id})
	started, engine := s.started, s.engine
	s.mu.Unlock()

	s.log.Info().Str("conn", id).Msg("connected")

	if started {
		// late arrival, catch up with a snapshot and the last thing that happened
		snap := engine.Query()
		s.mu.Lock()
		if c, ok := s.conns[id]; ok {
			s.sendLocked(c, "snapshot", snap)
			if s.lastEvent != nil {
				s.sendLocked(c, "event", *s.lastEvent)
			}
		}
		s.mu.Unlock()
	}

	return id, c.downCh
}

// Disconnect forgets a connection. Before the game its seats are given up,
// after the start its players are dropped from the game.
func (s *Session) Disconnect(connID string) {
	s.mu.Lock()
	c, ok := s.conns[connID]
	if !ok {
		s.mu.Unlock()
		return
	}
	players := s.dropLocked(c)
	engine := s.engine
	s.mu.Unlock()

	s.log.Info().Str("conn", connID).Msg("disconnected")

	if len(players) > 0 {
		engine.Submit(game.Request{From: connID, Command: game.PlayersDropped{Players: players}})
	}
}

// dropLocked removes a connection, and says which players went with it.
func (s *Session) dropLocked(c *clientBundle) []int {
	delete(s.conns, c.id)
	close(c.downCh)

	if !s.started {
		var keep []seat
		for _, st := range s.seats {
			if st.conn != c.id {
				keep = append(keep, st)
			}
		}
		s.seats = keep
		return nil
	}

	var players []int
	for p := range c.players {
		players = append(players, p)
	}
	sort.Ints(players)
	return players
}

func (s *Session) maxSeats() int {
	rs := s.opts.Game.Rules
	each := rs.Int(rules.InitialFuelStations)
	if each <= 0 {
		return 8
	}
	return rs.Int(rules.TotalFuelStations) / each
}

// Join takes a seat. The number is provisional until the game starts, when
// each connection is told its final numbers.
func (s *Session) Join(connID, name string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conns[connID]; !ok {
		return 0, game.ErrUnknownPlayer
	}
	if s.started {
		return 0, comms.ErrStarted
	}
	if name == "" {
		return 0, game.ErrBadRequest
	}
	if len(s.seats) >= s.maxSeats() {
		return 0, comms.ErrSessionFull
	}

	s.seats = append(s.seats, seat{name: name, conn: connID})
	s.log.Info().Str("conn", connID).Msgf("%s joined", name)
	return len(s.seats) - 1, nil
}

// Start makes the engine from the seats. Run will then run it.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return comms.ErrStarted
	}

	var names []string
	for _, st := range s.seats {
		names = append(names, st.name)
	}

	g := s.opts.Game
	logger := s.log.With().Str("comp", "engine").Logger()
	engine, err := game.NewEngine(game.Options{
		Board:   g.Board,
		Rules:   g.Rules,
		Cards:   g.Cards,
		Players: names,
		Dice:    s.opts.Dice,
		Seed:    s.opts.Seed,
		Log:     &logger,
	}, s)
	if err != nil {
		return err
	}

	if s.opts.JournalDir != "" {
		j, err := journal.Create(s.opts.JournalDir, s.id)
		if err != nil {
			return err
		}
		s.journal = j
		s.log.Info().Msgf("journal at %s", j.Path())
	}

	s.engine = engine
	s.started = true

	for i, st := range s.seats {
		if c, ok := s.conns[st.conn]; ok {
			c.players[i] = true
		}
	}

	snap := engine.Snapshot()
	for _, c := range s.conns {
		s.sendLocked(c, "snapshot", snap)
		players := []int{}
		for p := range c.players {
			players = append(players, p)
		}
		sort.Ints(players)
		s.sendLocked(c, "players", players)
	}

	s.log.Info().Int("players", len(names)).Msg("game starting")
	close(s.startCh)
	return nil
}

// Act sends a command into the game, if the connection holds the player.
func (s *Session) Act(connID string, req comms.ActRequest) error {
	s.mu.Lock()
	c, ok := s.conns[connID]
	switch {
	case !ok:
		s.mu.Unlock()
		return game.ErrUnknownPlayer
	case !s.started:
		s.mu.Unlock()
		return comms.ErrNotStarted
	case !c.players[req.Player]:
		s.mu.Unlock()
		return comms.ErrNotSeated
	case !c.limiter.Allow():
		s.mu.Unlock()
		return comms.ErrTooFast
	}
	engine := s.engine
	s.mu.Unlock()

	cmd, err := game.DecodeCommand(req.Type, req.Value)
	if err != nil {
		return &comms.CommsError{Code: comms.ErrBadMessage.Code, Msg: err.Error()}
	}
	if _, ok := cmd.(game.PlayersDropped); ok {
		return comms.ErrBadMessage
	}

	if !engine.Submit(game.Request{From: connID, Player: req.Player, Command: cmd}) {
		return game.ErrGameOver
	}
	return nil
}

// Resync sends the last event again, to one connection.
func (s *Session) Resync(connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conns[connID]
	if !ok {
		return game.ErrUnknownPlayer
	}
	if s.lastEvent == nil {
		return comms.ErrNotStarted
	}
	s.sendLocked(c, "event", *s.lastEvent)
	return nil
}

// Text is chat, passed on to everyone. Like events, anyone lagging is
// dropped.
func (s *Session) Text(connID, text string) {
	msg, err := comms.Encode("text", comms.Text{From: connID, Text: text})
	if err != nil {
		s.log.Error().Err(err).Msg("failed to encode text")
		return
	}

	s.mu.Lock()
	var dropped []int
	for _, c := range s.conns {
		if !s.pushLocked(c, msg) {
			dropped = append(dropped, s.dropLocked(c)...)
		}
	}
	engine := s.engine
	s.mu.Unlock()

	s.dropPlayers(engine, dropped)
}

// Snapshot asks the engine how things stand.
func (s *Session) Snapshot() (game.Snapshot, error) {
	s.mu.Lock()
	engine := s.engine
	s.mu.Unlock()

	if engine == nil {
		return game.Snapshot{}, comms.ErrNotStarted
	}
	return engine.Query(), nil
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		ID:          s.id,
		Game:        s.opts.Game.Name,
		Started:     s.started,
		Seats:       []string{},
		Connections: len(s.conns),
	}
	for _, seat := range s.seats {
		st.Seats = append(st.Seats, seat.name)
	}
	if s.engine != nil {
		select {
		case <-s.engine.Done():
			st.Over = true
		default:
		}
	}
	return st
}

// Broadcast is called by the engine, and must never block it. Anyone who
// can't keep up is dropped, and the engine is told about the players they
// held.
func (s *Session) Broadcast(ev game.Event) {
	s.mu.Lock()

	s.lastEvent = &ev
	if s.journal != nil {
		if err := s.journal.Write(ev); err != nil {
			s.log.Error().Err(err).Msg("journal write failed")
		}
	}

	msg, err := comms.Encode("event", ev)
	if err != nil {
		s.mu.Unlock()
		s.log.Error().Err(err).Msg("failed to encode event")
		return
	}

	var dropped []int
	for _, c := range s.conns {
		if !s.pushLocked(c, msg) {
			dropped = append(dropped, s.dropLocked(c)...)
		}
	}
	engine := s.engine
	s.mu.Unlock()

	s.dropPlayers(engine, dropped)
}

// SendTo is for events only one connection should see.
func (s *Session) SendTo(connID string, ev game.Event) {
	s.mu.Lock()

	c, ok := s.conns[connID]
	if !ok {
		s.mu.Unlock()
		return
	}

	var dropped []int
	msg, err := comms.Encode("event", ev)
	if err == nil && !s.pushLocked(c, msg) {
		dropped = s.dropLocked(c)
	}
	engine := s.engine
	s.mu.Unlock()

	s.dropPlayers(engine, dropped)
}

// dropPlayers tells the engine, from another goroutine, since this is
// called on the engine's own.
func (s *Session) dropPlayers(engine *game.Engine, players []int) {
	if len(players) == 0 || engine == nil {
		return
	}
	sort.Ints(players)
	s.log.Info().Ints("players", players).Msg("players dropped")
	go engine.Submit(game.Request{From: "session", Command: game.PlayersDropped{Players: players}})
}

func (s *Session) sendLocked(c *clientBundle, head string, v interface{}) {
	msg, err := comms.Encode(head, v)
	if err != nil {
		s.log.Error().Err(err).Msgf("failed to encode %s", head)
		return
	}
	s.pushLocked(c, msg)
}

// pushLocked never waits. It's false if the client is lagging.
func (s *Session) pushLocked(c *clientBundle, msg comms.Message) bool {
	select {
	case c.downCh <- msg:
		return true
	default:
		s.log.Info().Str("conn", c.id).Msg("client lagging")
		return false
	}
}

func (s *Session) closeJournal() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			s.log.Error().Err(err).Msg("journal close failed")
		}
		s.journal = nil
	}
}
