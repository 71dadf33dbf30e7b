package delivery

import (
	"schoolfee/domain"
	"schoolfee/middleware"

	"github.com/gofiber/fiber/v2"
)

type classRequest struct {
	ClassName string  `json:"class_name" validate:"required,max=100"`
	Course    string  `json:"course" validate:"required,max=150"`
	FeeAmount float64 `json:"fee_amount" validate:"gte=0"`
}

type classHandler struct {
	cuc domain.ClassUseCase
}

func NewClassDelivery(app fiber.Router, uc domain.ClassUseCase) {
	handler := &classHandler{
		cuc: uc,
	}

	route := app.Group("/classes", middleware.AuthRequired())
	route.Get("/", middleware.RoleRequired("admin", "staff"), handler.GetAllClasses)
	route.Post("/", middleware.RoleRequired("admin"), handler.CreateClass)
	route.Put("/:id", middleware.RoleRequired("admin"), handler.UpdateClass)
	route.Delete("/:id", middleware.RoleRequired("admin"), handler.DeleteClass)
}

func (ch *classHandler) GetAllClasses(c *fiber.Ctx) error {
	classes, err := ch.cuc.GetAllClasses(c.UserContext())
	if err != nil {
		return fail(c, err, "Failed to retrieve classes", "GetAllClasses")
	}
	return ok(c, fiber.StatusOK, "Classes retrieved successfully", "GetAllClasses", classes)
}

func (ch *classHandler) CreateClass(c *fiber.Ctx) error {
	var req classRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid class data", "CreateClass")
	}

	created, err := ch.cuc.CreateClass(c.UserContext(), &domain.Class{
		ClassName: req.ClassName,
		Course:    req.Course,
		FeeAmount: req.FeeAmount,
	})
	if err != nil {
		return fail(c, err, "Failed to create class", "CreateClass")
	}
	return ok(c, fiber.StatusCreated, "Class created successfully", "CreateClass", created)
}

func (ch *classHandler) UpdateClass(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return fail(c, err, "Invalid class id", "UpdateClass")
	}
	var req classRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid class data", "UpdateClass")
	}

	updated, err := ch.cuc.UpdateClass(c.UserContext(), id, &domain.Class{
		ClassName: req.ClassName,
		Course:    req.Course,
		FeeAmount: req.FeeAmount,
	})
	if err != nil {
		return fail(c, err, "Failed to update class", "UpdateClass")
	}
	return ok(c, fiber.StatusOK, "Class updated successfully", "UpdateClass", updated)
}

func (ch *classHandler) DeleteClass(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return fail(c, err, "Invalid class id", "DeleteClass")
	}

	if err := ch.cuc.DeleteClass(c.UserContext(), id); err != nil {
		return fail(c, err, "Failed to delete class", "DeleteClass")
	}
	return ok(c, fiber.StatusOK, "Class deleted successfully", "DeleteClass", nil)
}
