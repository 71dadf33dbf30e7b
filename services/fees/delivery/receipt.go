package delivery

import (
	"schoolfee/domain"
	"schoolfee/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type receiptRequest struct {
	StudentID     string  `json:"student_id" validate:"required,uuid"`
	PaymentDate   string  `json:"payment_date" validate:"required"`
	PaymentMethod string  `json:"payment_method" validate:"required"`
	TotalFee      float64 `json:"total_fee" validate:"gte=0"`
	PaidAmount    float64 `json:"paid_amount" validate:"gte=0"`
	Description   *string `json:"description"`
	Notes         *string `json:"notes"`
}

func (r *receiptRequest) toReceipt() (*domain.Receipt, error) {
	paid, err := parseDateField("payment_date", r.PaymentDate)
	if err != nil {
		return nil, err
	}
	method, valid := domain.ParsePaymentMethod(r.PaymentMethod)
	if !valid {
		return nil, domain.NewValidationError(domain.FieldError{Field: "payment_method", Error: "Payment method must be Cash, Bank Transfer, Online or Cheque"})
	}
	return &domain.Receipt{
		StudentID:     uuid.MustParse(r.StudentID),
		PaymentDate:   datatypes.Date(paid),
		PaymentMethod: method,
		TotalFee:      r.TotalFee,
		PaidAmount:    r.PaidAmount,
		Description:   r.Description,
		Notes:         r.Notes,
	}, nil
}

type receiptHandler struct {
	ruc domain.ReceiptUseCase
	iuc domain.ImportExportUseCase
}

func NewReceiptDelivery(app fiber.Router, uc domain.ReceiptUseCase, iuc domain.ImportExportUseCase) {
	handler := &receiptHandler{
		ruc: uc,
		iuc: iuc,
	}

	route := app.Group("/receipts", middleware.AuthRequired())
	route.Post("/import", middleware.RoleRequired("admin"), handler.ImportReceipts)
	route.Get("/export", middleware.RoleRequired("admin"), handler.ExportReceipts)
	route.Get("/", middleware.RoleRequired("admin", "staff"), handler.GetAllReceipts)
	route.Get("/:id", middleware.RoleRequired("admin", "staff"), handler.GetReceiptByID)
	route.Post("/", middleware.RoleRequired("admin", "staff"), handler.CreateReceipt)
	route.Put("/:id", middleware.RoleRequired("admin", "staff"), handler.UpdateReceipt)
	route.Delete("/:id", middleware.RoleRequired("admin"), handler.DeleteReceipt)
}

func (rh *receiptHandler) GetAllReceipts(c *fiber.Ctx) error {
	var filter domain.ReceiptFilter
	var err error
	if filter.StudentID, err = uuidQuery(c, "student_id"); err != nil {
		return fail(c, err, "Invalid filter", "GetAllReceipts")
	}
	if filter.From, err = dateQuery(c, "from"); err != nil {
		return fail(c, err, "Invalid filter", "GetAllReceipts")
	}
	if filter.To, err = dateQuery(c, "to"); err != nil {
		return fail(c, err, "Invalid filter", "GetAllReceipts")
	}
	if m := c.Query("method"); m != "" {
		method, valid := domain.ParsePaymentMethod(m)
		if !valid {
			return fail(c, domain.NewValidationError(domain.FieldError{Field: "method", Error: "unknown payment method"}), "Invalid filter", "GetAllReceipts")
		}
		filter.Method = method
	}

	receipts, err := rh.ruc.GetAllReceipts(c.UserContext(), filter)
	if err != nil {
		return fail(c, err, "Failed to retrieve receipts", "GetAllReceipts")
	}
	return ok(c, fiber.StatusOK, "Receipts retrieved successfully", "GetAllReceipts", receipts)
}

func (rh *receiptHandler) GetReceiptByID(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return fail(c, err, "Invalid receipt id", "GetReceiptByID")
	}

	receipt, err := rh.ruc.GetReceiptByID(c.UserContext(), id)
	if err != nil {
		return fail(c, err, "Failed to retrieve receipt", "GetReceiptByID")
	}
	return ok(c, fiber.StatusOK, "Receipt retrieved successfully", "GetReceiptByID", receipt)
}

func (rh *receiptHandler) CreateReceipt(c *fiber.Ctx) error {
	var req receiptRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid receipt data", "CreateReceipt")
	}
	receipt, err := req.toReceipt()
	if err != nil {
		return fail(c, err, "Invalid receipt data", "CreateReceipt")
	}

	created, err := rh.ruc.CreateReceipt(c.UserContext(), receipt)
	if err != nil {
		return fail(c, err, "Failed to create receipt", "CreateReceipt")
	}
	return ok(c, fiber.StatusCreated, "Receipt created successfully", "CreateReceipt", created)
}

func (rh *receiptHandler) UpdateReceipt(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return fail(c, err, "Invalid receipt id", "UpdateReceipt")
	}
	var req receiptRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid receipt data", "UpdateReceipt")
	}
	receipt, err := req.toReceipt()
	if err != nil {
		return fail(c, err, "Invalid receipt data", "UpdateReceipt")
	}

	updated, err := rh.ruc.UpdateReceipt(c.UserContext(), id, receipt)
	if err != nil {
		return fail(c, err, "Failed to update receipt", "UpdateReceipt")
	}
	return ok(c, fiber.StatusOK, "Receipt updated successfully", "UpdateReceipt", updated)
}

func (rh *receiptHandler) DeleteReceipt(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return fail(c, err, "Invalid receipt id", "DeleteReceipt")
	}

	if err := rh.ruc.DeleteReceipt(c.UserContext(), id); err != nil {
		return fail(c, err, "Failed to delete receipt", "DeleteReceipt")
	}
	return ok(c, fiber.StatusOK, "Receipt deleted successfully", "DeleteReceipt", nil)
}

func (rh *receiptHandler) ImportReceipts(c *fiber.Ctx) error {
	result, err := importUpload(c, rh.iuc.ImportReceipts)
	if err != nil {
		return fail(c, err, "Failed to import receipts", "ImportReceipts")
	}
	return ok(c, fiber.StatusOK, "Receipts imported", "ImportReceipts", result)
}

func (rh *receiptHandler) ExportReceipts(c *fiber.Ctx) error {
	return exportCSV(c, "receipts", "ExportReceipts", rh.iuc.ExportReceipts)
}
