package usecase

import (
	"context"
	"sync"
	"time"

	"schoolfee/config"
	"schoolfee/domain"
)

type changeHub struct {
	repo    domain.AnalyticsRepo
	TimeOut time.Duration

	mu     sync.Mutex
	nextID int
	subs   map[int]chan domain.DashboardMetrics
}

// NewChangeHub recomputes dashboard metrics from a fresh snapshot on every
// change event and fans them out to subscribers.
func NewChangeHub(repo domain.AnalyticsRepo, timeOut time.Duration) domain.ChangeHub {
	return &changeHub{
		repo:    repo,
		TimeOut: timeOut,
		subs:    make(map[int]chan domain.DashboardMetrics),
	}
}

// Subscribe returns a channel holding at most the latest metrics. A slow
// reader skips stale values.
func (h *changeHub) Subscribe() (<-chan domain.DashboardMetrics, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan domain.DashboardMetrics, 1)
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
		})
	}
}

func (h *changeHub) Run(ctx context.Context, events <-chan domain.ChangeEvent) {
	log := config.GetLogrusInstance()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case ev, ok := <-events:
			if !ok {
				h.closeAll()
				return
			}
			m, err := h.recompute(ctx)
			if err != nil {
				log.WithError(err).WithField("table", ev.Table).Warn("failed to recompute dashboard metrics")
				continue
			}
			h.broadcast(m)
		}
	}
}

func (h *changeHub) recompute(ctx context.Context) (domain.DashboardMetrics, error) {
	ctx, cancel := context.WithTimeout(ctx, h.TimeOut)
	defer cancel()

	snap, err := h.repo.GetSnapshot(ctx)
	if err != nil {
		return domain.DashboardMetrics{}, err
	}
	return BuildDashboardMetrics(*snap, nowFunc()), nil
}

func (h *changeHub) broadcast(m domain.DashboardMetrics) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		select {
		case <-ch:
		default:
		}
		ch <- m
	}
}

func (h *changeHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
