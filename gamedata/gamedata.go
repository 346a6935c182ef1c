// Package gamedata loads games from YAML files: the board, the rules and the
// red shift cards.
package gamedata

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/undeconstructed/solarquest/board"
	"github.com/undeconstructed/solarquest/card"
	"github.com/undeconstructed/solarquest/rules"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON string

//go:embed default.yaml
var defaultGame []byte

// Game is everything needed to start an engine, apart from the players.
type Game struct {
	Name  string
	Board *board.Board
	Rules rules.RuleSet
	Cards []card.Card
}

type gameFile struct {
	Name  string            `yaml:"name"`
	Start string            `yaml:"start"`
	Rules map[string]string `yaml:"rules"`
	Nodes []nodeFile        `yaml:"nodes"`
	Cards []cardFile        `yaml:"cards"`
}

type nodeFile struct {
	ID      string       `yaml:"id"`
	Type    string       `yaml:"type"`
	To      []string     `yaml:"to"`
	Price   int          `yaml:"price"`
	Group   string       `yaml:"group"`
	Rents   []int        `yaml:"rents"`
	Fuels   []int        `yaml:"fuels"`
	Actions []actionFile `yaml:"actions"`
}

type cardFile struct {
	ID      string       `yaml:"id"`
	Text    string       `yaml:"text"`
	Count   int          `yaml:"count"`
	Actions []actionFile `yaml:"actions"`
}

type actionFile struct {
	Type  string `yaml:"type"`
	Value string `yaml:"value"`
}

var schema *jsonschema.Schema

func init() {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("game.schema.json", strings.NewReader(schemaJSON)); err != nil {
		panic(err)
	}
	schema = c.MustCompile("game.schema.json")
}

// Default is the game built into the server.
func Default() (*Game, error) {
	return Parse(defaultGame)
}

// Load reads a game file. An empty path means the default game.
func Load(path string) (*Game, error) {
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	g, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Parse checks a game against the schema, then builds it.
func Parse(raw []byte) (*Game, error) {
	if err := Validate(raw); err != nil {
		return nil, err
	}

	var f gameFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("bad game: %w", err)
	}

	rs, err := rules.Parse(f.Rules)
	if err != nil {
		return nil, err
	}

	var defs []board.NodeDef
	for _, n := range f.Nodes {
		t, err := board.ParseNodeType(n.Type)
		if err != nil {
			return nil, err
		}
		actions, err := parseActions(n.Actions)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
		defs = append(defs, board.NodeDef{
			ID:      n.ID,
			Type:    t,
			To:      n.To,
			Price:   n.Price,
			Group:   n.Group,
			Rents:   n.Rents,
			Fuels:   n.Fuels,
			Actions: actions,
		})
	}

	b, err := board.New(f.Start, defs)
	if err != nil {
		return nil, err
	}

	var cards []card.Card
	for _, c := range f.Cards {
		actions, err := parseActions(c.Actions)
		if err != nil {
			return nil, fmt.Errorf("card %s: %w", c.ID, err)
		}
		count := c.Count
		if count == 0 {
			count = 1
		}
		for i := 0; i < count; i++ {
			cards = append(cards, card.Card{ID: c.ID, Text: c.Text, Actions: actions})
		}
	}

	if err := checkAdvances(b, cards); err != nil {
		return nil, err
	}

	return &Game{Name: f.Name, Board: b, Rules: rs, Cards: cards}, nil
}

// Validate checks a YAML game against the JSON schema.
func Validate(raw []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("bad yaml: %w", err)
	}
	j, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("cannot convert to json: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(j))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return err
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("invalid game: %w", err)
	}
	return nil
}

func parseActions(in []actionFile) ([]card.Action, error) {
	var out []card.Action
	for _, a := range in {
		act, err := card.ParseAction(a.Type, a.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, act)
	}
	return out, nil
}

// checkAdvances makes sure every advance goes somewhere real.
func checkAdvances(b *board.Board, cards []card.Card) error {
	check := func(where string, actions []card.Action) error {
		for _, a := range actions {
			if adv, ok := a.(card.Advance); ok {
				if _, ok := b.Node(adv.Node); !ok {
					return fmt.Errorf("%s advances to unknown node %s", where, adv.Node)
				}
			}
		}
		return nil
	}
	for _, n := range b.Nodes() {
		if err := check("node "+n.ID, n.Actions); err != nil {
			return err
		}
	}
	for _, c := range cards {
		if err := check("card "+c.ID, c.Actions); err != nil {
			return err
		}
	}
	return nil
}
