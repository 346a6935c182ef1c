package journal

import (
	"testing"

	"github.com/undeconstructed/solarquest/game"
)

func TestWriteRead(t *testing.T) {
	dir := t.TempDir()

	w, err := Create(dir, "s1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	p := 1
	w.Write(game.Event{Type: game.EventPreRoll, Player: &p})
	w.Write(game.Event{Type: game.EventRolled, Player: &p, Value: game.Dice{Die1: 3, Die2: 4}})
	w.Write(game.Event{Type: game.EventGameOver})

	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := w.Write(game.Event{Type: game.EventWon}); err == nil {
		t.Errorf("wrote after close")
	}

	entries, err := Read(w.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	for i, e := range entries {
		if e.Seq != int64(i+1) {
			t.Errorf("entry %d has seq %d", i, e.Seq)
		}
	}
	if entries[0].Event.Type != game.EventPreRoll || *entries[0].Event.Player != 1 {
		t.Errorf("bad first entry: %#v", entries[0])
	}
	dice, ok := entries[1].Event.Value.(map[string]interface{})
	if !ok || dice["die1"] != float64(3) {
		t.Errorf("bad dice: %#v", entries[1].Event.Value)
	}
	if entries[2].Event.Player != nil {
		t.Errorf("game over has a player")
	}
}

func TestCreate_exists(t *testing.T) {
	dir := t.TempDir()
	w, err := Create(dir, "dup")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer w.Close()

	if _, err := Create(dir, "dup"); err == nil {
		t.Errorf("journal overwritten")
	}
}
