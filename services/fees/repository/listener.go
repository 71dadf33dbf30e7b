package repository

import (
	"context"
	"time"

	"schoolfee/config"
	"schoolfee/domain"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

const changeChannel = "record_changes"

type pgListener struct {
	pool    *pgxpool.Pool
	backoff time.Duration
}

// NewChangeListener listens on the record_changes channel fed by the
// notify_record_change triggers.
func NewChangeListener(pool *pgxpool.Pool) domain.ChangeListener {
	return &pgListener{
		pool:    pool,
		backoff: 5 * time.Second,
	}
}

// Listen reconnects after connection loss until ctx is done.
func (l *pgListener) Listen(ctx context.Context, out chan<- domain.ChangeEvent) error {
	if l.pool == nil {
		return errors.Wrap(domain.ErrFeatureUnavailable, "change listener: no pool")
	}
	log := config.GetLogrusInstance()

	for {
		err := l.listenOnce(ctx, out)
		if ctx.Err() != nil {
			return nil
		}
		log.WithError(err).Warnf("change listener dropped, retrying in %s", l.backoff)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.backoff):
		}
	}
}

func (l *pgListener) listenOnce(ctx context.Context, out chan<- domain.ChangeEvent) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return errors.Wrap(err, "acquire listener connection")
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+changeChannel); err != nil {
		return errors.Wrap(err, "listen")
	}
	config.GetLogrusInstance().Infof("listening on %s", changeChannel)

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return errors.Wrap(err, "wait for notification")
		}

		var ev domain.ChangeEvent
		if err := sonic.UnmarshalString(n.Payload, &ev); err != nil {
			config.GetLogrusInstance().WithError(err).WithField("payload", n.Payload).Warn("bad change payload")
			ev = domain.ChangeEvent{Table: "unknown", At: time.Now()}
		}

		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
