package schedule

import (
	"context"
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/derekprior/roomdraw/internal/strategy"
)

// Attempt is one seeded generation tried by Search.
type Attempt struct {
	Seed   int64
	Result *Result
	Score  float64
}

// Search generates one schedule per seed baseSeed, baseSeed+1, ...,
// baseSeed+attempts-1 and returns the attempt with the lowest soft score.
// Ties go to the lower seed, so the outcome depends only on the inputs.
// opts.Strategy is ignored: every attempt uses its own seeded shuffle.
func Search(ctx context.Context, teams []string, rooms []Room, opts Options, attempts int, baseSeed int64) (*Attempt, error) {
	if attempts < 1 {
		return nil, fmt.Errorf("%w: search needs at least 1 attempt, got %d", ErrInvalidConfiguration, attempts)
	}
	if err := validateInputs(teams, rooms, opts); err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	results := make([]*Attempt, attempts)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := range attempts {
		seed := baseSeed + int64(i)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			attemptOpts := opts
			attemptOpts.Strategy = strategy.NewSeededShuffle(seed)
			attemptOpts.Logger = log.WithField("seed", seed)

			result, err := Generate(teams, rooms, attemptOpts)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			results[i] = &Attempt{Seed: seed, Result: result, Score: result.softScore(teams)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	best := results[0]
	for _, a := range results[1:] {
		if a.Score < best.Score {
			best = a
		}
	}

	log.WithFields(logrus.Fields{
		"attempts": attempts,
		"seed":     best.Seed,
		"rounds":   len(best.Result.Rounds),
		"score":    best.Score,
	}).Debug("search complete")
	return best, nil
}
