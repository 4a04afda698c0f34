package simulate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/okian/laneup/internal/adapters/repository"
	"github.com/okian/laneup/internal/domain/model"
	"github.com/okian/laneup/internal/domain/teamsplit"
	"github.com/okian/laneup/pkg/logger"
)

// Sentinel errors returned by Run.
var (
	ErrConfig    = errors.New("invalid simulation config")
	ErrInvariant = errors.New("draw invariants violated")
	ErrUnsettled = errors.New("results were not applied in time")
)

const settlePollInterval = 50 * time.Millisecond

// Run executes a complete simulation against a running server and returns
// its statistics. The stats are returned even when verification fails.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if cfg.NumPlayers < teamsplit.SelectionSize {
		return nil, fmt.Errorf("%w: need at least %d players, got %d", ErrConfig, teamsplit.SelectionSize, cfg.NumPlayers)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	log := logger.Get().Named("simulate")
	stats := &Stats{StartTime: time.Now()}
	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible simulation

	log.Info(ctx, "starting simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("players", cfg.NumPlayers),
		logger.Int("draws", cfg.NumDraws),
		logger.Int("workers", cfg.Workers),
		logger.Int("seed", int(cfg.Seed)),
	)

	// Step 1: Check service health
	if err := client.getJSON(ctx, "/healthz", nil); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}
	baseline, err := historyTotal(ctx, client)
	if err != nil {
		return stats, err
	}

	// Step 2: Seed the roster
	ids, err := seedPlayers(ctx, client, cfg, generatePlayers(rng, cfg.NumPlayers))
	stats.PlayersCreated = len(ids)
	if err != nil {
		return stats, fmt.Errorf("seeding players failed: %w", err)
	}

	// Step 3: Draw and report
	runDraws(ctx, client, cfg, planDraws(rng, cfg, ids), stats, log)

	// Step 4: Wait for the results to be applied
	recorded, err := waitForHistory(ctx, client, baseline+stats.ResultsAccepted, cfg.SettleTimeout)
	stats.MatchesRecorded = max(0, recorded-baseline)
	if err != nil {
		return stats, err
	}

	// Step 5: Verify the roster
	var players []model.Player
	if err := client.getJSON(ctx, "/api/players", &players); err != nil {
		return stats, fmt.Errorf("listing players failed: %w", err)
	}
	if err := verifyRoster(players, repository.MaxScore); err != nil {
		return stats, fmt.Errorf("%w: %w", ErrInvariant, err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)

	if stats.InvariantErrors > 0 {
		return stats, fmt.Errorf("%w: %d draws failed verification", ErrInvariant, stats.InvariantErrors)
	}
	log.Info(ctx, "simulation completed successfully")
	return stats, nil
}

// seedPlayers creates the players concurrently and returns their ids in
// generation order.
func seedPlayers(ctx context.Context, client *HTTPClient, cfg *Config, players []model.Player) ([]string, error) {
	ids := make([]string, len(players))
	errs := make([]error, len(players))

	work := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				status, body, err := client.postJSON(ctx, "/api/players", players[i])
				switch {
				case err != nil:
					errs[i] = err
				case status != http.StatusCreated:
					errs[i] = fmt.Errorf("create %s: status %d", players[i].Name, status)
				default:
					var p model.Player
					if err := json.Unmarshal(body, &p); err != nil {
						errs[i] = fmt.Errorf("create %s: decode: %w", players[i].Name, err)
						continue
					}
					ids[i] = p.ID
				}
			}
		}()
	}

	for i := range players {
		select {
		case <-ctx.Done():
		case work <- i:
			continue
		}
		break
	}
	close(work)
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// runDraws performs every planned draw, verifies it and reports its winner.
func runDraws(ctx context.Context, client *HTTPClient, cfg *Config, plans []plannedDraw, stats *Stats, log logger.Logger) {
	var mu sync.Mutex
	record := func(fn func(s *Stats)) {
		mu.Lock()
		fn(stats)
		mu.Unlock()
	}

	work := make(chan plannedDraw, cfg.Workers*2)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for plan := range work {
				d, err := draw(ctx, client, plan)
				if err != nil {
					record(func(s *Stats) { s.DrawsRequested++; s.DrawsFailed++ })
					log.Warn(ctx, "draw failed", logger.Int("draw", plan.index), logger.Error(err))
					continue
				}
				verr := verifyDraw(d, plan.selection)
				record(func(s *Stats) {
					s.DrawsRequested++
					switch d.Mode {
					case model.ModeBalanced:
						s.DrawsBalanced++
					case model.ModeFallback:
						s.DrawsFallback++
					case model.ModeUnbalanced:
						s.DrawsUnbalanced++
					}
					if d.Warning != "" {
						s.DrawsWarned++
					}
					s.MaxDiff = max(s.MaxDiff, d.Diff)
					if verr != nil {
						s.InvariantErrors++
					}
				})
				if verr != nil {
					log.Error(ctx, "draw failed verification", logger.Error(verr))
				} else if cfg.Verbose {
					log.Info(ctx, "draw verified",
						logger.String("matchId", d.MatchID),
						logger.String("mode", string(d.Mode)),
						logger.Int("diff", d.Diff),
					)
				}

				ack, err := report(ctx, client, d.MatchID, plan.winner)
				record(func(s *Stats) {
					switch {
					case err != nil:
						s.ResultsRejected++
					case ack.Duplicate:
						s.ResultsDuplicate++
					default:
						s.ResultsAccepted++
					}
				})
				if err != nil {
					log.Warn(ctx, "result rejected", logger.String("matchId", d.MatchID), logger.Error(err))
				}
			}
		}()
	}

	for _, plan := range plans {
		select {
		case <-ctx.Done():
		case work <- plan:
			continue
		}
		break
	}
	close(work)
	wg.Wait()
}

func draw(ctx context.Context, client *HTTPClient, plan plannedDraw) (model.Draw, error) {
	status, body, err := client.postJSON(ctx, "/api/draws", drawRequest{PlayerIDs: plan.selection, Balance: plan.balance})
	if err != nil {
		return model.Draw{}, err
	}
	if status != http.StatusCreated {
		return model.Draw{}, fmt.Errorf("status %d: %s", status, body)
	}
	var d model.Draw
	if err := json.Unmarshal(body, &d); err != nil {
		return model.Draw{}, fmt.Errorf("decode draw: %w", err)
	}
	return d, nil
}

func report(ctx context.Context, client *HTTPClient, matchID string, winner model.Side) (ackResponse, error) {
	status, body, err := client.postJSON(ctx, "/api/draws/"+matchID+"/result", resultRequest{Winner: winner})
	if err != nil {
		return ackResponse{}, err
	}
	if status != http.StatusAccepted && status != http.StatusOK {
		return ackResponse{}, fmt.Errorf("status %d: %s", status, body)
	}
	var ack ackResponse
	if err := json.Unmarshal(body, &ack); err != nil {
		return ackResponse{}, fmt.Errorf("decode ack: %w", err)
	}
	return ack, nil
}

func historyTotal(ctx context.Context, client *HTTPClient) (int, error) {
	var page historyPage
	if err := client.getJSON(ctx, "/api/match-history?page=1&page_size=1", &page); err != nil {
		return 0, fmt.Errorf("reading match history failed: %w", err)
	}
	return page.Total, nil
}

// waitForHistory polls the match history until it holds want records.
func waitForHistory(ctx context.Context, client *HTTPClient, want int, timeout time.Duration) (int, error) {
	deadline := time.Now().Add(timeout)
	for {
		total, err := historyTotal(ctx, client)
		if err != nil {
			return 0, err
		}
		if total >= want {
			return total, nil
		}
		if time.Now().After(deadline) {
			return total, fmt.Errorf("%w: %d of %d matches recorded", ErrUnsettled, total, want)
		}
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		case <-time.After(settlePollInterval):
		}
	}
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var drawsPerSecond float64
	if stats.Duration > 0 {
		drawsPerSecond = float64(stats.DrawsRequested) / stats.Duration.Seconds()
	}

	log.Info(ctx, "final statistics",
		logger.Int("playersCreated", stats.PlayersCreated),
		logger.Int("drawsRequested", stats.DrawsRequested),
		logger.Int("drawsBalanced", stats.DrawsBalanced),
		logger.Int("drawsFallback", stats.DrawsFallback),
		logger.Int("drawsUnbalanced", stats.DrawsUnbalanced),
		logger.Int("drawsFailed", stats.DrawsFailed),
		logger.Int("drawsWarned", stats.DrawsWarned),
		logger.Int("invariantErrors", stats.InvariantErrors),
		logger.Int("resultsAccepted", stats.ResultsAccepted),
		logger.Int("resultsDuplicate", stats.ResultsDuplicate),
		logger.Int("resultsRejected", stats.ResultsRejected),
		logger.Int("matchesRecorded", stats.MatchesRecorded),
		logger.Int("maxDiff", stats.MaxDiff),
		logger.Duration("duration", stats.Duration),
		logger.Float64("drawsPerSecond", drawsPerSecond),
	)
}
