package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

// unset clears keys that an env file will set, and again afterwards.
func unset(t *testing.T, keys ...string) {
	for _, k := range keys {
		os.Unsetenv(k)
	}
	t.Cleanup(func() {
		for _, k := range keys {
			os.Unsetenv(k)
		}
	})
}

func TestLoad_defaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "none.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.TCPAddr != ":1235" || c.WebAddr != ":1080" || c.GRPCAddr != ":1236" {
		t.Errorf("bad addrs: %#v", c)
	}
	if c.GameFile != "" || c.JournalDir != "" || c.Seed != 0 {
		t.Errorf("bad defaults: %#v", c)
	}
	if c.LogLevel != zerolog.InfoLevel {
		t.Errorf("level: %v", c.LogLevel)
	}
	if len(c.AllowedOrigins) != 1 || c.AllowedOrigins[0] != "*" {
		t.Errorf("origins: %v", c.AllowedOrigins)
	}
	if len(c.Rules) != 0 {
		t.Errorf("rules: %v", c.Rules)
	}
}

func TestLoad_file(t *testing.T) {
	unset(t, "QUEST_GAME_FILE", "QUEST_SEED", "QUEST_RULES", "QUEST_LOG_LEVEL")
	t.Setenv("QUEST_TCP_ADDR", ":9999")

	p := filepath.Join(t.TempDir(), "test.env")
	env := "QUEST_GAME_FILE=games/big.yaml\n" +
		"QUEST_SEED=42\n" +
		"QUEST_RULES=laser_battles_allowed=true, initial_cash=5000\n" +
		"QUEST_LOG_LEVEL=debug\n" +
		"QUEST_TCP_ADDR=:1111\n"
	if err := os.WriteFile(p, []byte(env), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.GameFile != "games/big.yaml" || c.Seed != 42 {
		t.Errorf("file not read: %#v", c)
	}
	if c.Rules["laser_battles_allowed"] != "true" || c.Rules["initial_cash"] != "5000" {
		t.Errorf("rules: %v", c.Rules)
	}
	if c.LogLevel != zerolog.DebugLevel {
		t.Errorf("level: %v", c.LogLevel)
	}
	// the real environment wins
	if c.TCPAddr != ":9999" {
		t.Errorf("tcp addr: %s", c.TCPAddr)
	}
}

func TestLoad_bad(t *testing.T) {
	none := filepath.Join(t.TempDir(), "none.env")
	bad := map[string]string{
		"QUEST_SEED":         "lots",
		"QUEST_ACTION_RATE":  "0",
		"QUEST_ACTION_BURST": "x",
		"QUEST_RULES":        "nokey",
		"QUEST_LOG_LEVEL":    "shouty",
	}
	for k, v := range bad {
		t.Run(k, func(t *testing.T) {
			t.Setenv(k, v)
			if _, err := Load(none); err == nil {
				t.Errorf("%s=%s accepted", k, v)
			}
		})
	}
}
