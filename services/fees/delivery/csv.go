package delivery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"schoolfee/config"
	"schoolfee/domain"
	"schoolfee/middleware"

	"github.com/gofiber/fiber/v2"
)

func importUpload(c *fiber.Ctx, fn func(context.Context, io.Reader) (*domain.ImportResult, error)) (*domain.ImportResult, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, domain.NewValidationError(domain.FieldError{Field: "file", Error: "Failed to get file"})
	}
	file, err := fileHeader.Open()
	if err != nil {
		return nil, domain.NewValidationError(domain.FieldError{Field: "file", Error: "Failed to open file"})
	}
	defer file.Close()

	return fn(c.UserContext(), file)
}

// exportCSV buffers the whole file so a failure can still return JSON.
func exportCSV(c *fiber.Ctx, kind, funcName string, fn func(context.Context, io.Writer) error) error {
	var buf bytes.Buffer
	if err := fn(c.UserContext(), &buf); err != nil {
		return fail(c, err, "Failed to export "+kind, funcName)
	}

	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s_export_%s.csv", kind, time.Now().Format(dateLayout)))
	c.Set(fiber.HeaderContentType, "text/csv")
	config.PrintLogInfo(&claimsOf(c).Username, fiber.StatusOK, funcName)
	return c.Status(fiber.StatusOK).Send(buf.Bytes())
}

type templateHandler struct {
	iuc domain.ImportExportUseCase
}

func NewTemplateDelivery(app fiber.Router, iuc domain.ImportExportUseCase) {
	handler := &templateHandler{
		iuc: iuc,
	}

	route := app.Group("/templates", middleware.AuthRequired())
	route.Get("/:kind", middleware.RoleRequired("admin"), handler.DownloadTemplate)
}

func (th *templateHandler) DownloadTemplate(c *fiber.Ctx) error {
	kind := c.Params("kind")

	var buf bytes.Buffer
	if err := th.iuc.WriteTemplate(kind, &buf); err != nil {
		return fail(c, err, "Failed to get the input data template", "DownloadTemplate")
	}

	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s_template.csv", kind))
	c.Set(fiber.HeaderContentType, "text/csv")
	config.PrintLogInfo(&claimsOf(c).Username, fiber.StatusOK, "DownloadTemplate")
	return c.Status(fiber.StatusOK).Send(buf.Bytes())
}
