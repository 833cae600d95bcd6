package db

import (
	"context"
	"time"

	"github.com/atinyakov/loancalc/internal/models"
	"go.uber.org/zap"
)

// DuplicateFinder reports types with more than one active configuration.
type DuplicateFinder interface {
	ActiveDuplicates(ctx context.Context) (map[models.CalculatorType]int, error)
}

// AuditActiveDuplicates logs a warning for every calculator type with more
// than one active configuration. Calculations use the oldest of them.
func AuditActiveDuplicates(ctx context.Context, finder DuplicateFinder, log *zap.Logger) error {
	dups, err := finder.ActiveDuplicates(ctx)
	if err != nil {
		return err
	}
	for t, n := range dups {
		log.Warn("several active calculators of one type, the oldest is used",
			zap.String("type", string(t)),
			zap.Int("count", n),
		)
	}
	return nil
}

// StartDuplicateAuditor repeats AuditActiveDuplicates every interval until
// ctx is done.
func StartDuplicateAuditor(
	ctx context.Context,
	finder DuplicateFinder,
	interval time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := AuditActiveDuplicates(ctx, finder, log); err != nil {
					log.Error("failed to audit active calculators", zap.Error(err))
				}
			}
		}
	}()
}
