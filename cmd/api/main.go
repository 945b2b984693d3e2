package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/georgemunganga/milkchain-backend/internal/cli"
)

func main() {
	// Replaced by the configured logger once a command loads its config.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := cli.ExecuteContext(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to execute command")
	}
}
