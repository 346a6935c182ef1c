package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/undeconstructed/solarquest/client"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	server := flag.String("server", "localhost:1235", "server address")
	name := flag.String("name", "", "take a seat with this name")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := client.NewClient(*name, *server)
	if err := c.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("client stopped")
	}
}
