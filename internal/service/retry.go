package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/Skotchmaster/brewhaven/internal/docstore"
	"github.com/Skotchmaster/brewhaven/internal/logging"
	"github.com/Skotchmaster/brewhaven/internal/models"
	"github.com/Skotchmaster/brewhaven/internal/repo"
)

const retryBaseDelay = 5 * time.Millisecond

// basketMutation edits b in place and reports whether anything changed.
// An unchanged basket is not written back.
type basketMutation func(b *models.Basket) (changed bool, err error)

type basketLoader func(ctx context.Context, userID string) (*models.Basket, error)

// basketWriter runs bounded read-modify-write cycles against one basket,
// relying on the store's version check instead of in-process locks.
type basketWriter struct {
	baskets     *repo.BasketRepo
	maxAttempts int
	now         func() time.Time
}

func (w basketWriter) update(ctx context.Context, userID string, load basketLoader, mutate basketMutation) (*models.Basket, error) {
	l := logging.FromContext(ctx).With("user_id", userID)

	var lastErr error
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := pause(ctx, attempt); err != nil {
				return nil, persistence("basket update", err)
			}
		}

		b, err := load(ctx, userID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, persistence("basket read", err)
			}
			l.Warn("basket_read_retry", "attempt", attempt, "error", err)
			lastErr = err
			continue
		}

		changed, err := mutate(b)
		if err != nil {
			return nil, err
		}
		if !changed {
			return b, nil
		}

		b.UpdatedAt = w.now()
		err = w.baskets.Update(ctx, b)
		if err == nil {
			return b, nil
		}
		if ctx.Err() != nil {
			return nil, persistence("basket write", err)
		}
		if errors.Is(err, docstore.ErrNotFound) {
			err = fmt.Errorf("%w: basket vanished", docstore.ErrVersionConflict)
		}
		if docstore.IsDomainError(err) {
			l.Info("basket_write_conflict", "attempt", attempt, "error", err)
		} else {
			l.Warn("basket_write_retry", "attempt", attempt, "error", err)
		}
		lastErr = err
	}

	if errors.Is(lastErr, docstore.ErrVersionConflict) {
		return nil, fmt.Errorf("%w: user %s after %d attempts", ErrConcurrentModification, userID, w.maxAttempts)
	}
	return nil, persistence(fmt.Sprintf("basket update after %d attempts", w.maxAttempts), lastErr)
}

// pause waits a short, growing, jittered delay so racing writers spread out.
func pause(ctx context.Context, attempt int) error {
	d := time.Duration(rand.Int63n(int64(attempt) * int64(retryBaseDelay)))
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
