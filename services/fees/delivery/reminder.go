package delivery

import (
	"schoolfee/domain"
	"schoolfee/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type pairRequest struct {
	StudentID string `json:"student_id" validate:"required,uuid"`
	ReceiptID string `json:"receipt_id" validate:"required,uuid"`
}

func (p pairRequest) pair() domain.PairKey {
	return domain.PairKey{StudentID: uuid.MustParse(p.StudentID), ReceiptID: uuid.MustParse(p.ReceiptID)}
}

type scheduleRequest struct {
	pairRequest
	IntervalDays *int `json:"interval_days" validate:"omitempty,gte=0,lte=365"`
}

type sendRequest struct {
	pairRequest
	SentVia string  `json:"sent_via" validate:"required,oneof=whatsapp email sms"`
	Notes   *string `json:"notes"`
}

type markSentRequest struct {
	SentVia string  `json:"sent_via" validate:"required,oneof=whatsapp email sms"`
	Notes   *string `json:"notes"`
}

type markFailedRequest struct {
	Notes *string `json:"notes"`
}

type messageRequest struct {
	StudentName  string  `json:"student_name" validate:"required"`
	RemainingDue float64 `json:"remaining_due" validate:"gte=0"`
	DaysOverdue  int     `json:"days_overdue" validate:"gte=0"`
	Course       *string `json:"course"`
}

type reminderHandler struct {
	ruc          domain.ReminderUseCase
	graceDays    int
	intervalDays int
}

func NewReminderDelivery(app fiber.Router, uc domain.ReminderUseCase, graceDays, intervalDays int) {
	handler := &reminderHandler{
		ruc:          uc,
		graceDays:    graceDays,
		intervalDays: intervalDays,
	}

	route := app.Group("/reminders", middleware.AuthRequired())
	route.Get("/overdue", middleware.RoleRequired("admin", "staff"), handler.GetOverdue)
	route.Get("/stats", middleware.RoleRequired("admin", "staff"), handler.GetStats)
	route.Get("/history", middleware.RoleRequired("admin", "staff"), handler.GetHistory)
	route.Get("/preview", middleware.RoleRequired("admin", "staff"), handler.PreviewMessage)
	route.Post("/message", middleware.RoleRequired("admin", "staff"), handler.GenerateMessage)
	route.Post("/schedule", middleware.RoleRequired("admin", "staff"), handler.ScheduleReminder)
	route.Post("/send", middleware.RoleRequired("admin", "staff"), handler.SendReminder)
	route.Post("/sweep", middleware.RoleRequired("admin"), handler.RunSweep)
	route.Put("/:id/sent", middleware.RoleRequired("admin", "staff"), handler.MarkSent)
	route.Put("/:id/failed", middleware.RoleRequired("admin", "staff"), handler.MarkFailed)
}

func (rh *reminderHandler) GetOverdue(c *fiber.Ctx) error {
	grace := c.QueryInt("grace_days", rh.graceDays)
	if grace < 0 {
		return fail(c, domain.NewValidationError(domain.FieldError{Field: "grace_days", Error: "cannot be negative"}), "Invalid grace period", "GetOverdue")
	}

	data, err := rh.ruc.GetStudentsWithOverdueInfo(c.UserContext(), grace)
	if err != nil {
		return fail(c, err, "Failed to retrieve overdue payments", "GetOverdue")
	}
	return ok(c, fiber.StatusOK, "Overdue payments retrieved successfully", "GetOverdue", data)
}

func (rh *reminderHandler) GetStats(c *fiber.Ctx) error {
	stats, err := rh.ruc.GetReminderStats(c.UserContext())
	if err != nil {
		return fail(c, err, "Failed to retrieve reminder stats", "GetReminderStats")
	}
	return ok(c, fiber.StatusOK, "Reminder stats retrieved successfully", "GetReminderStats", stats)
}

func (rh *reminderHandler) GetHistory(c *fiber.Ctx) error {
	studentID, err := uuidQuery(c, "student_id")
	if err != nil {
		return fail(c, err, "Invalid filter", "GetReminderHistory")
	}
	receiptID, err := uuidQuery(c, "receipt_id")
	if err != nil {
		return fail(c, err, "Invalid filter", "GetReminderHistory")
	}

	data, err := rh.ruc.GetReminderHistory(c.UserContext(), studentID, receiptID)
	if err != nil {
		return fail(c, err, "Failed to retrieve reminder history", "GetReminderHistory")
	}
	return ok(c, fiber.StatusOK, "Reminder history retrieved successfully", "GetReminderHistory", data)
}

func (rh *reminderHandler) PreviewMessage(c *fiber.Ctx) error {
	req := pairRequest{StudentID: c.Query("student_id"), ReceiptID: c.Query("receipt_id")}
	if err := validate.Struct(req); err != nil {
		return fail(c, domain.NewValidationError(domain.FieldError{Field: "student_id, receipt_id", Error: "must be uuids"}), "Invalid reminder target", "PreviewMessage")
	}

	msg, err := rh.ruc.PreviewMessage(c.UserContext(), req.pair())
	if err != nil {
		return fail(c, err, "Failed to generate message", "PreviewMessage")
	}
	return ok(c, fiber.StatusOK, "Message generated", "PreviewMessage", fiber.Map{"message": msg})
}

func (rh *reminderHandler) GenerateMessage(c *fiber.Ctx) error {
	var req messageRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid message data", "GenerateMessage")
	}

	msg := rh.ruc.GenerateMessage(c.UserContext(), req.StudentName, req.RemainingDue, req.DaysOverdue, req.Course)
	return ok(c, fiber.StatusOK, "Message generated", "GenerateMessage", fiber.Map{"message": msg})
}

func (rh *reminderHandler) ScheduleReminder(c *fiber.Ctx) error {
	var req scheduleRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid reminder data", "ScheduleReminder")
	}
	interval := rh.intervalDays
	if req.IntervalDays != nil {
		interval = *req.IntervalDays
	}

	rem, err := rh.ruc.ScheduleReminder(c.UserContext(), req.pair(), interval)
	if err != nil {
		return fail(c, err, "Failed to schedule reminder", "ScheduleReminder")
	}
	return ok(c, fiber.StatusCreated, "Reminder scheduled", "ScheduleReminder", rem)
}

func (rh *reminderHandler) SendReminder(c *fiber.Ctx) error {
	var req sendRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid reminder data", "SendReminder")
	}

	result, err := rh.ruc.SendReminder(c.UserContext(), req.pair(), domain.Channel(req.SentVia), req.Notes)
	if err != nil {
		return fail(c, err, "Failed to send reminder", "SendReminder")
	}
	message := "Reminder sent"
	if !result.Delivered {
		message = "Reminder marked sent, delivery failed"
	}
	return ok(c, fiber.StatusOK, message, "SendReminder", result)
}

func (rh *reminderHandler) MarkSent(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return fail(c, err, "Invalid reminder id", "MarkReminderSent")
	}
	var req markSentRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid reminder data", "MarkReminderSent")
	}

	rem, err := rh.ruc.MarkReminderSent(c.UserContext(), id, domain.Channel(req.SentVia), req.Notes)
	if err != nil {
		return fail(c, err, "Failed to update reminder", "MarkReminderSent")
	}
	return ok(c, fiber.StatusOK, "Reminder marked as sent", "MarkReminderSent", rem)
}

func (rh *reminderHandler) MarkFailed(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return fail(c, err, "Invalid reminder id", "MarkReminderFailed")
	}
	var req markFailedRequest
	if len(c.Body()) > 0 {
		if err := bind(c, &req); err != nil {
			return fail(c, err, "Invalid reminder data", "MarkReminderFailed")
		}
	}

	rem, err := rh.ruc.MarkReminderFailed(c.UserContext(), id, req.Notes)
	if err != nil {
		return fail(c, err, "Failed to update reminder", "MarkReminderFailed")
	}
	return ok(c, fiber.StatusOK, "Reminder marked as failed", "MarkReminderFailed", rem)
}

func (rh *reminderHandler) RunSweep(c *fiber.Ctx) error {
	result, err := rh.ruc.RunReminderSweep(c.UserContext())
	if err != nil {
		return fail(c, err, "Reminder sweep failed", "RunReminderSweep")
	}
	return ok(c, fiber.StatusOK, "Reminder sweep finished", "RunReminderSweep", result)
}
