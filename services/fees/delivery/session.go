package delivery

import (
	"schoolfee/domain"
	"schoolfee/middleware"

	"github.com/gofiber/fiber/v2"
)

type searchRequest struct {
	Term string `json:"term" validate:"required,max=200"`
}

type pageRequest struct {
	Page string `json:"page" validate:"required,startswith=/"`
}

type sessionHandler struct {
	suc domain.SessionUseCase
}

func NewSessionDelivery(app fiber.Router, uc domain.SessionUseCase) {
	handler := &sessionHandler{
		suc: uc,
	}

	route := app.Group("/session", middleware.AuthRequired())
	route.Get("/", handler.StartSession)
	route.Put("/preferences", handler.UpdatePreferences)
	route.Put("/settings", handler.UpdateSettings)
	route.Post("/search", handler.AddSearch)
	route.Put("/page", handler.SetCurrentPage)
	route.Put("/filters/:page", handler.SaveFilters)
	route.Put("/sort/:page", handler.SaveSort)
	route.Delete("/", handler.ClearSession)
}

func (sh *sessionHandler) respond(c *fiber.Ctx, sc *domain.SessionContext, err error, funcName string) error {
	if err != nil {
		return fail(c, err, "Failed to update session", funcName)
	}
	return ok(c, fiber.StatusOK, "Session updated", funcName, sc)
}

func (sh *sessionHandler) StartSession(c *fiber.Ctx) error {
	sc, err := sh.suc.StartSession(c.UserContext(), claimsOf(c).UserID)
	return sh.respond(c, sc, err, "StartSession")
}

func (sh *sessionHandler) UpdatePreferences(c *fiber.Ctx) error {
	var req domain.UserPreferences
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid preferences", "UpdatePreferences")
	}
	sc, err := sh.suc.UpdatePreferences(c.UserContext(), claimsOf(c).UserID, req)
	return sh.respond(c, sc, err, "UpdatePreferences")
}

func (sh *sessionHandler) UpdateSettings(c *fiber.Ctx) error {
	var req domain.DashboardSettings
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid settings", "UpdateSettings")
	}
	sc, err := sh.suc.UpdateSettings(c.UserContext(), claimsOf(c).UserID, req)
	return sh.respond(c, sc, err, "UpdateSettings")
}

func (sh *sessionHandler) AddSearch(c *fiber.Ctx) error {
	var req searchRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid search term", "AddSearch")
	}
	sc, err := sh.suc.AddSearch(c.UserContext(), claimsOf(c).UserID, req.Term)
	return sh.respond(c, sc, err, "AddSearch")
}

func (sh *sessionHandler) SetCurrentPage(c *fiber.Ctx) error {
	var req pageRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid page", "SetCurrentPage")
	}
	sc, err := sh.suc.SetCurrentPage(c.UserContext(), claimsOf(c).UserID, req.Page)
	return sh.respond(c, sc, err, "SetCurrentPage")
}

func (sh *sessionHandler) SaveFilters(c *fiber.Ctx) error {
	var req map[string]interface{}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, domain.NewValidationError(domain.FieldError{Field: "body", Error: "Invalid request body"}), "Invalid filters", "SaveFilters")
	}
	sc, err := sh.suc.SaveFilters(c.UserContext(), claimsOf(c).UserID, c.Params("page"), req)
	return sh.respond(c, sc, err, "SaveFilters")
}

func (sh *sessionHandler) SaveSort(c *fiber.Ctx) error {
	var req map[string]interface{}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, domain.NewValidationError(domain.FieldError{Field: "body", Error: "Invalid request body"}), "Invalid sort", "SaveSort")
	}
	sc, err := sh.suc.SaveSort(c.UserContext(), claimsOf(c).UserID, c.Params("page"), req)
	return sh.respond(c, sc, err, "SaveSort")
}

func (sh *sessionHandler) ClearSession(c *fiber.Ctx) error {
	sc, err := sh.suc.ClearSession(c.UserContext(), claimsOf(c).UserID)
	return sh.respond(c, sc, err, "ClearSession")
}
