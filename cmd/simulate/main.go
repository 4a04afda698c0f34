package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/laneup/internal/simulate"
	"github.com/okian/laneup/pkg/logger"
)

// Default configuration constants.
const (
	defaultPlayers         = 40
	defaultDraws           = 200
	defaultWorkers         = 4
	defaultUnbalancedEvery = 10
	defaultTimeout         = 10 * time.Second
	defaultSettle          = 30 * time.Second
	defaultRunTimeout      = 10 * time.Minute
)

func main() {
	var (
		baseURL         = flag.String("url", "http://localhost:9080", "Base URL of the service")
		players         = flag.Int("players", defaultPlayers, "Number of players to create")
		draws           = flag.Int("draws", defaultDraws, "Number of draws to perform")
		workers         = flag.Int("workers", defaultWorkers, "Number of concurrent HTTP workers")
		unbalancedEvery = flag.Int("unbalanced-every", defaultUnbalancedEvery, "Every n-th draw with balancing off; 0 for never")
		seed            = flag.Int64("seed", time.Now().UnixNano(), "Random seed")
		timeout         = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		settle          = flag.Duration("settle", defaultSettle, "How long to wait for results to be applied")
		logFormat       = flag.String("log-format", logger.FormatText, "Log format: text or json")
		verbose         = flag.Bool("verbose", false, "Log every verified draw")
		help            = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulate.ShowHelp()
		return
	}

	if err := logger.Init(logger.WithFormat(*logFormat)); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &simulate.Config{
		BaseURL:         *baseURL,
		NumPlayers:      *players,
		NumDraws:        *draws,
		Workers:         *workers,
		UnbalancedEvery: *unbalancedEvery,
		Timeout:         *timeout,
		SettleTimeout:   *settle,
		Seed:            *seed,
		Verbose:         *verbose,
	}

	if _, err := simulate.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "simulation failed", logger.Error(err))
		cancel()
		os.Exit(1)
	}
}
