package storage

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const defaultMaxTries = 5

// RetryTransient re-runs fn while it fails with a transient error such as a
// serialization failure or deadlock. Other errors are returned immediately.
func RetryTransient(ctx context.Context, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := fn()
		if err != nil && !IsTransient(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(defaultMaxTries),
	)
	return err
}
