package fetch

import (
	"context"
	"time"
)

// Clock abstracts the retry-delay wait so tests can observe and skip
// it. Sleep returns early with ctx.Err() when the context is cancelled.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
