// Command autopick selects one round's squad offline from JSON files and
// writes it as CSV.
//
//	autopick -round 7 -predictions preds.json -players bootstrap.json -out gw7_squad.csv
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/riskibarqy/fantasy-autopick/internal/app"
	"github.com/riskibarqy/fantasy-autopick/internal/config"
	"github.com/riskibarqy/fantasy-autopick/internal/infrastructure/report"
	"github.com/riskibarqy/fantasy-autopick/internal/platform/logging"
	"github.com/riskibarqy/fantasy-autopick/internal/usecase"
)

type options struct {
	round           int
	predictionsPath string
	playersPath     string
	outPath         string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "autopick: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("autopick", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.IntVar(&opts.round, "round", 0, "gameweek to select for (required)")
	fs.StringVar(&opts.predictionsPath, "predictions", "", "JSON array of predictions (required)")
	fs.StringVar(&opts.playersPath, "players", "", "JSON array of player metadata or a bootstrap-static document (required)")
	fs.StringVar(&opts.outPath, "out", "", "CSV output path, stdout when empty")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	switch {
	case opts.round < 1:
		return options{}, fmt.Errorf("-round must be greater than zero")
	case opts.predictionsPath == "":
		return options{}, fmt.Errorf("-predictions is required")
	case opts.playersPath == "":
		return options{}, fmt.Errorf("-players is required")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.NewJSONWriter(stderr, cfg.LogLevel).With("service", "autopick")
	defer func() { _ = logger.Sync() }()

	predictions, err := readPredictions(opts.predictionsPath, opts.round)
	if err != nil {
		return err
	}
	players, err := readPlayers(opts.playersPath)
	if err != nil {
		return err
	}

	repo, closeRepo, err := app.NewSelectionRepository(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeRepo() }()

	services := app.NewServices(cfg, repo, logger)
	picked, err := services.Selection.SelectRound(ctx, usecase.SelectRoundInput{
		Round:       opts.round,
		Predictions: predictions,
		Players:     players,
	})
	if err != nil {
		return err
	}

	out := stdout
	if opts.outPath != "" {
		file, err := os.Create(opts.outPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer file.Close()
		out = file
	}
	if err := report.WriteSelectionCSV(out, picked); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}

	logger.InfoContext(ctx, "selection written",
		"round", picked.Round,
		"strategy", picked.Strategy,
		"squad_score", picked.SquadScore,
		"starter_score", picked.StarterScore,
		"out", opts.outPath,
	)
	return nil
}
