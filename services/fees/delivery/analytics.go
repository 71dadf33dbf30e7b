package delivery

import (
	"schoolfee/domain"
	"schoolfee/middleware"

	"github.com/gofiber/fiber/v2"
)

type analyticsHandler struct {
	auc domain.AnalyticsUseCase
}

func NewAnalyticsDelivery(app fiber.Router, uc domain.AnalyticsUseCase) {
	handler := &analyticsHandler{
		auc: uc,
	}

	route := app.Group("/analytics", middleware.AuthRequired(), middleware.RoleRequired("admin", "staff"))
	route.Get("/dashboard", handler.GetDashboard)
	route.Get("/report", handler.GetReport)
	route.Get("/fee-structure", handler.GetFeeStructure)
}

func (ah *analyticsHandler) GetDashboard(c *fiber.Ctx) error {
	data, err := ah.auc.GetDashboardMetrics(c.UserContext())
	if err != nil {
		return fail(c, err, "Failed to compute dashboard metrics", "GetDashboardMetrics")
	}
	return ok(c, fiber.StatusOK, "Dashboard metrics computed", "GetDashboardMetrics", data)
}

func (ah *analyticsHandler) GetReport(c *fiber.Ctx) error {
	data, err := ah.auc.GetAnalyticsReport(c.UserContext())
	if err != nil {
		return fail(c, err, "Failed to compute analytics", "GetAnalyticsReport")
	}
	return ok(c, fiber.StatusOK, "Analytics computed", "GetAnalyticsReport", data)
}

func (ah *analyticsHandler) GetFeeStructure(c *fiber.Ctx) error {
	data, err := ah.auc.GetFeeStructureAnalytics(c.UserContext())
	if err != nil {
		return fail(c, err, "Failed to compute fee structure analytics", "GetFeeStructureAnalytics")
	}
	return ok(c, fiber.StatusOK, "Fee structure analytics computed", "GetFeeStructureAnalytics", data)
}
