package usecase

import (
	"context"

	"schoolfee/config"
	"schoolfee/domain"

	"github.com/pkg/errors"
)

// withFallback runs the precomputed path and, on any error, the local one.
// Only the local error reaches the caller.
func withFallback[T any](ctx context.Context, op string, remote, local func(context.Context) (T, error)) (T, error) {
	v, err := remote(ctx)
	if err == nil {
		return v, nil
	}

	entry := config.GetLogrusInstance().WithField("op", op)
	if errors.Is(err, domain.ErrFeatureUnavailable) {
		entry.Debug("remote path unavailable, computing locally")
	} else {
		entry.WithError(err).Warn("remote path failed, computing locally")
	}
	return local(ctx)
}
