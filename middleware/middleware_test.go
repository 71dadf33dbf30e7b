package middleware

import (
	"net/http/httptest"
	"testing"

	"schoolfee/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp() *fiber.App {
	app := fiber.New()
	app.Get("/staff", AuthRequired(), RoleRequired("admin", "staff"), func(c *fiber.Ctx) error {
		claims := c.Locals("user").(*domain.Claims)
		return c.SendString(claims.Username)
	})
	app.Get("/admin", AuthRequired(), RoleRequired("admin"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestGenerateAndVerify(t *testing.T) {
	SetJWTKey("test-secret")

	token, err := GenerateJWT(3, "hina", "staff")
	require.NoError(t, err)

	claims, err := VerifyJWT(token)
	require.NoError(t, err)
	assert.Equal(t, 3, claims.UserID)
	assert.Equal(t, "hina", claims.Username)
	assert.Equal(t, "staff", claims.Role)

	SetJWTKey("rotated")
	_, err = VerifyJWT(token)
	assert.Error(t, err)
}

func TestAuthRequired(t *testing.T) {
	SetJWTKey("test-secret")
	app := newApp()
	staff, err := GenerateJWT(3, "hina", "staff")
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"no token", "/staff", "", fiber.StatusUnauthorized},
		{"garbage token", "/staff", "Bearer nope", fiber.StatusUnauthorized},
		{"bearer header", "/staff", "Bearer " + staff, fiber.StatusOK},
		{"query token", "/staff?token=" + staff, "", fiber.StatusOK},
		{"role denied", "/admin", "Bearer " + staff, fiber.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}
