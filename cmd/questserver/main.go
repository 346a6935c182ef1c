package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/undeconstructed/solarquest/config"
	"github.com/undeconstructed/solarquest/gamedata"
	"github.com/undeconstructed/solarquest/rules"
	"github.com/undeconstructed/solarquest/server"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(os.Args[1:]...)
	if err != nil {
		log.Fatal().Err(err).Msg("bad config")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	g, err := gamedata.Load(cfg.GameFile)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load game")
	}
	if len(cfg.Rules) > 0 {
		over := map[rules.Key]string{}
		for k, v := range cfg.Rules {
			over[rules.Key(k)] = v
		}
		if g.Rules, err = g.Rules.With(over); err != nil {
			log.Fatal().Err(err).Msg("bad rules")
		}
	}

	session := server.NewSession(server.Options{
		Game:        g,
		Seed:        cfg.Seed,
		JournalDir:  cfg.JournalDir,
		ActionRate:  cfg.ActionRate,
		ActionBurst: cfg.ActionBurst,
	})
	log.Info().Str("session", session.ID()).Str("game", g.Name).Msg("session made")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	grp, gctx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		return session.Run(gctx)
	})
	grp.Go(func() error {
		return server.RunTCPGateway(gctx, session, cfg.TCPAddr)
	})
	grp.Go(func() error {
		return server.RunWebGateway(gctx, session, cfg.WebAddr, cfg.AllowedOrigins)
	})
	grp.Go(func() error {
		return server.RunGRPCGateway(gctx, session, cfg.GRPCAddr)
	})

	err = grp.Wait()
	log.Info().Err(err).Msg("server return")
	if err != nil {
		os.Exit(1)
	}
}
