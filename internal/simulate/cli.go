package simulate

import "os"

// ShowHelp prints usage information for the simulate tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`laneup simulator
================

Seeds a running laneup server with random players, performs draws, reports
random winners and verifies every draw client-side.

Usage:
  go run ./cmd/simulate [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -players int
        Number of players to create (default 40, minimum 10)
  -draws int
        Number of draws to perform (default 200)
  -workers int
        Number of concurrent HTTP workers (default 4)
  -unbalanced-every int
        Make every n-th draw with balancing off, 0 for never (default 10)
  -seed int
        Random seed (default: current time)
  -timeout duration
        HTTP request timeout (default 10s)
  -settle duration
        How long to wait for results to be applied (default 30s)
  -log-format string
        Log format, text or json (default "text")
  -verbose
        Log every verified draw
  -help
        Show this help message

Examples:
  # Simulate with default settings
  go run ./cmd/simulate

  # A larger run against another address
  go run ./cmd/simulate -players 200 -draws 5000 -workers 16 -url http://localhost:8080
`)
}
