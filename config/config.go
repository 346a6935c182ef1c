// Package config reads server settings from the environment, after loading
// any .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	TCPAddr  string
	WebAddr  string
	GRPCAddr string

	// GameFile is a YAML game. Empty means the built in game.
	GameFile string
	// Rules override the game's own rules, as key=value pairs.
	Rules map[string]string
	// Seed fixes the dice and the cards. Zero means random.
	Seed int64

	JournalDir string
	LogLevel   zerolog.Level

	ActionRate     float64
	ActionBurst    int
	AllowedOrigins []string
}

// Load reads the given env files, or .env if there are none. Missing files
// are not an error.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil {
		log.Debug().Err(err).Msg("no env file, using the environment")
	}

	c := &Config{
		TCPAddr:        getEnv("QUEST_TCP_ADDR", ":1235"),
		WebAddr:        getEnv("QUEST_WEB_ADDR", ":1080"),
		GRPCAddr:       getEnv("QUEST_GRPC_ADDR", ":1236"),
		GameFile:       getEnv("QUEST_GAME_FILE", ""),
		JournalDir:     getEnv("QUEST_JOURNAL_DIR", ""),
		AllowedOrigins: splitList(getEnv("QUEST_ALLOWED_ORIGINS", "*")),
	}

	var err error
	if c.Rules, err = parsePairs(getEnv("QUEST_RULES", "")); err != nil {
		return nil, fmt.Errorf("QUEST_RULES: %w", err)
	}
	if c.Seed, err = strconv.ParseInt(getEnv("QUEST_SEED", "0"), 10, 64); err != nil {
		return nil, fmt.Errorf("QUEST_SEED: %w", err)
	}
	if c.ActionRate, err = strconv.ParseFloat(getEnv("QUEST_ACTION_RATE", "5"), 64); err != nil {
		return nil, fmt.Errorf("QUEST_ACTION_RATE: %w", err)
	}
	if c.ActionBurst, err = strconv.Atoi(getEnv("QUEST_ACTION_BURST", "10")); err != nil {
		return nil, fmt.Errorf("QUEST_ACTION_BURST: %w", err)
	}
	if c.LogLevel, err = zerolog.ParseLevel(getEnv("QUEST_LOG_LEVEL", "info")); err != nil {
		return nil, fmt.Errorf("QUEST_LOG_LEVEL: %w", err)
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	if c.TCPAddr == "" && c.WebAddr == "" && c.GRPCAddr == "" {
		return fmt.Errorf("no gateways configured")
	}
	if c.ActionRate <= 0 {
		return fmt.Errorf("QUEST_ACTION_RATE must be positive")
	}
	if c.ActionBurst < 1 {
		return fmt.Errorf("QUEST_ACTION_BURST must be at least 1")
	}
	return nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func parsePairs(s string) (map[string]string, error) {
	out := map[string]string{}
	for _, f := range splitList(s) {
		kv := strings.SplitN(f, "=", 2)
		if len(kv) != 2 || kv[0] == "" {
			return nil, fmt.Errorf("bad pair: %s", f)
		}
		out[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	return out, nil
}
