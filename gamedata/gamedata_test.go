package gamedata

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/undeconstructed/solarquest/card"
	"github.com/undeconstructed/solarquest/rules"
)

func TestDefault(t *testing.T) {
	g, err := Default()
	if err != nil {
		t.Fatalf("default game: %v", err)
	}
	if g.Board.Start().ID != "earth" {
		t.Errorf("start: %s", g.Board.Start().ID)
	}
	if len(g.Cards) != 12 {
		t.Errorf("cards: %d", len(g.Cards))
	}
	if g.Rules.RedShiftRoll() != rules.Doubles {
		t.Errorf("red shift: %s", g.Rules.RedShiftRoll())
	}
	if g.Rules.Int(rules.InitialCash) != 3200 {
		t.Errorf("initial cash not defaulted")
	}

	s4, ok := g.Board.Node("s4")
	if !ok {
		t.Fatalf("no s4")
	}
	if cc, ok := s4.Actions[0].(card.CollectCash); !ok || cc.Amount != 50 {
		t.Errorf("bad node action: %#v", s4.Actions)
	}

	io, _ := g.Board.Node("io")
	if io.Rent(2) != 120 || io.FuelPrice(3) != 2 {
		t.Errorf("bad tables: %v %v", io.Rents, io.Fuels)
	}
	if len(g.Board.Group("jupiter")) != 3 {
		t.Errorf("jupiter group")
	}
}

func TestDefaultMoves(t *testing.T) {
	g, err := Default()
	if err != nil {
		t.Fatalf("default game: %v", err)
	}
	b := g.Board

	// into the well, and stuck at the bottom
	moves := b.AllowedMoves(b.Start(), 3)
	if len(moves) != 1 || moves[0].ID != "luna" {
		t.Errorf("3 from earth: %v", moves)
	}
	moves = b.AllowedMoves(b.Start(), 4)
	if len(moves) != 1 || moves[0].ID != "luna" {
		t.Errorf("4 from earth: %v", moves)
	}
	moves = b.AllowedMoves(b.Start(), 5)
	if len(moves) != 1 || moves[0].ID != "s3" {
		t.Errorf("5 from earth: %v", moves)
	}
	// the orbit can't be landed on
	moves = b.AllowedMoves(b.Start(), 2)
	if len(moves) != 1 || moves[0].ID != "s2" {
		t.Errorf("2 from earth: %v", moves)
	}
}

const small = `
start: a
rules:
  initial_cash: 1000
nodes:
  - id: a
    type: station
    to: [b]
  - id: b
    type: solid
    to: [a]
    price: 100
    rents: [10]
cards:
  - id: go
    count: 3
    actions:
      - type: advance
        value: b
`

func TestParse(t *testing.T) {
	g, err := Parse([]byte(small))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if g.Rules.Int(rules.InitialCash) != 1000 {
		t.Errorf("rules not read")
	}
	if len(g.Cards) != 3 {
		t.Errorf("count not used: %d", len(g.Cards))
	}
	if adv, ok := g.Cards[0].Actions[0].(card.Advance); !ok || adv.Node != "b" {
		t.Errorf("bad card: %#v", g.Cards[0])
	}
}

func TestParse_errors(t *testing.T) {
	bad := map[string]string{
		"schema":      strings.Replace(small, "type: solid", "type: moon", 1),
		"extra field": strings.Replace(small, "price: 100", "price: 100\n    colour: red", 1),
		"no start":    strings.Replace(small, "start: a", "start: z", 1),
		"bad link":    strings.Replace(small, "to: [a]", "to: [q]", 1),
		"bad rule":    strings.Replace(small, "initial_cash", "initial_gold", 1),
		"bad advance": strings.Replace(small, "value: b", "value: q", 1),
		"three ways":  strings.Replace(small, "to: [a]", "to: [a, a, a]", 1),
		"not yaml":    "nodes: [",
	}
	for name, in := range bad {
		if _, err := Parse([]byte(in)); err == nil {
			t.Errorf("%s: no error", name)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "game.yaml")
	if err := os.WriteFile(p, []byte(small), 0644); err != nil {
		t.Fatal(err)
	}

	g, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if g.Board.Start().ID != "a" {
		t.Errorf("wrong game")
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Errorf("missing file loaded")
	}

	g, err = Load("")
	if err != nil || g.Name != "inner planets" {
		t.Errorf("empty path should load the default: %v", err)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate([]byte(small)); err != nil {
		t.Fatalf("small game: %v", err)
	}
	if err := Validate(defaultGame); err != nil {
		t.Fatalf("default game: %v", err)
	}

	bad := strings.Replace(small, "price: 100", "price: lots", 1)
	if err := Validate([]byte(bad)); err == nil {
		t.Errorf("expected error for a text price")
	}
	if err := Validate([]byte("nodes: {}")); err == nil {
		t.Errorf("expected error for nodes as a map")
	}
}
