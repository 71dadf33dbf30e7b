package delivery

import (
	"bufio"
	"fmt"
	"time"

	"schoolfee/config"
	"schoolfee/domain"
	"schoolfee/middleware"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

const keepAliveEvery = 25 * time.Second

type eventsHandler struct {
	hub domain.ChangeHub
	auc domain.AnalyticsUseCase
}

func NewEventsDelivery(app fiber.Router, hub domain.ChangeHub, auc domain.AnalyticsUseCase) {
	handler := &eventsHandler{
		hub: hub,
		auc: auc,
	}

	app.Get("/events", middleware.AuthRequired(), middleware.RoleRequired("admin", "staff"), handler.Stream)
}

// Stream sends the current metrics, then a fresh set after every change.
func (eh *eventsHandler) Stream(c *fiber.Ctx) error {
	initial, err := eh.auc.GetDashboardMetrics(c.UserContext())
	if err != nil {
		return fail(c, err, "Failed to compute dashboard metrics", "StreamEvents")
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	username := claimsOf(c).Username
	updates, unsubscribe := eh.hub.Subscribe()
	config.PrintLogInfo(&username, fiber.StatusOK, "StreamEvents")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()

		if err := writeMetrics(w, *initial); err != nil {
			return
		}
		ticker := time.NewTicker(keepAliveEvery)
		defer ticker.Stop()

		for {
			select {
			case m, open := <-updates:
				if !open {
					return
				}
				if err := writeMetrics(w, m); err != nil {
					return
				}
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))
	return nil
}

func writeMetrics(w *bufio.Writer, m domain.DashboardMetrics) error {
	payload, err := sonic.Marshal(m)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: metrics\ndata: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}
