package cache

import (
	"context"
	"time"

	"milkbook/internal/domain"
)

// BalanceCache fronts the customer balance listing, the only query that
// touches every table. Invalidate is called after any write that can move
// a balance.
type BalanceCache interface {
	Get(ctx context.Context, search string) ([]domain.CustomerBalanceRow, bool, error)
	Set(ctx context.Context, search string, rows []domain.CustomerBalanceRow, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

type NoopBalanceCache struct{}

func (NoopBalanceCache) Get(_ context.Context, _ string) ([]domain.CustomerBalanceRow, bool, error) {
	return nil, false, nil
}

func (NoopBalanceCache) Set(_ context.Context, _ string, _ []domain.CustomerBalanceRow, _ time.Duration) error {
	return nil
}

func (NoopBalanceCache) Invalidate(_ context.Context) error {
	return nil
}
