// Package main provides the harvester command-line tool that collects Pokémon data from PokéAPI.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"pokedex/cmd/harvester/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a, err := commands.New(commands.WithContext(ctx))
	if err != nil {
		slog.Error(err.Error())
		stop()
		os.Exit(1)
	}

	code := run(a)

	stop()
	os.Exit(code)
}

type app interface {
	Run() error
	UsageError() bool
}

func run(a app) int {
	if err := a.Run(); err != nil {
		slog.Error(err.Error())

		if a.UsageError() {
			return 2
		}

		return 1
	}

	return 0
}
