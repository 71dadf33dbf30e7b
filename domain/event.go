package domain

import (
	"context"
	"time"
)

// ChangeEvent is one row-level change notification from the record store.
type ChangeEvent struct {
	Table string    `json:"table"`
	Op    string    `json:"op"`
	At    time.Time `json:"at"`
}

type ChangeListener interface {
	// Listen blocks until ctx is done, pushing every notification to out.
	Listen(ctx context.Context, out chan<- ChangeEvent) error
}

type ChangeHub interface {
	Subscribe() (<-chan DashboardMetrics, func())
	Run(ctx context.Context, events <-chan ChangeEvent)
}
