package delivery

import (
	"context"
	"time"

	"schoolfee/config"
	"schoolfee/domain"

	"github.com/robfig/cron/v3"
)

// NewReminderCron runs the reminder sweep on the cron schedule. Overlapping runs are
// skipped rather than queued.
func NewReminderCron(schedule string, uc domain.ReminderUseCase, timeOut time.Duration) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	_, err := c.AddFunc(schedule, func() {
		log := config.GetLogrusInstance()
		ctx, cancel := context.WithTimeout(context.Background(), timeOut)
		defer cancel()

		result, err := uc.RunReminderSweep(ctx)
		if err != nil {
			log.WithError(err).Error("scheduled reminder sweep failed")
			return
		}
		log.WithField("scheduled", result.Scheduled).WithField("dispatched", result.Dispatched).Info("scheduled reminder sweep done")
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}
