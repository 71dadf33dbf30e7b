package delivery

import (
	"time"

	"schoolfee/config"
	"schoolfee/domain"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const dateLayout = "2006-01-02"

var validate = validator.New()

func claimsOf(c *fiber.Ctx) *domain.Claims {
	if claims, ok := c.Locals("user").(*domain.Claims); ok {
		return claims
	}
	return &domain.Claims{Username: "anonymous"}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrClassInUse), errors.Is(err, domain.ErrReminderClosed):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrUnknownClass):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrStoreUnavailable), errors.Is(err, domain.ErrChannelUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// fail writes the error envelope and logs the outcome for the caller.
func fail(c *fiber.Ctx, err error, message, funcName string) error {
	code := statusFor(err)
	config.PrintLogInfo(&claimsOf(c).Username, code, funcName)
	if code >= fiber.StatusInternalServerError {
		config.GetLogrusInstance().WithError(err).WithField("func", funcName).Error(message)
	}

	body := fiber.Map{
		"success": false,
		"message": message,
		"error":   err.Error(),
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		body["errors"] = ve.Fields
	}
	return c.Status(code).JSON(body)
}

func ok(c *fiber.Ctx, code int, message, funcName string, data interface{}) error {
	config.PrintLogInfo(&claimsOf(c).Username, code, funcName)
	return c.Status(code).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

// bind parses the body into req and runs its validate tags.
func bind(c *fiber.Ctx, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return domain.NewValidationError(domain.FieldError{Field: "body", Error: "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]domain.FieldError, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, domain.FieldError{Field: fe.Field(), Error: "failed on " + fe.Tag()})
			}
			return domain.NewValidationError(fields...)
		}
		return err
	}
	return nil
}

func uuidParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, domain.NewValidationError(domain.FieldError{Field: name, Error: "must be a uuid"})
	}
	return id, nil
}

func uuidQuery(c *fiber.Ctx, name string) (*uuid.UUID, error) {
	v := c.Query(name)
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, domain.NewValidationError(domain.FieldError{Field: name, Error: "must be a uuid"})
	}
	return &id, nil
}

func dateQuery(c *fiber.Ctx, name string) (*time.Time, error) {
	v := c.Query(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil, domain.NewValidationError(domain.FieldError{Field: name, Error: "must be YYYY-MM-DD"})
	}
	return &t, nil
}

func parseDateField(field, v string) (time.Time, error) {
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, domain.NewValidationError(domain.FieldError{Field: field, Error: "must be YYYY-MM-DD"})
	}
	return t, nil
}
