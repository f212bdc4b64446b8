package middleware

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/paisa-pay/paisa_pay/internal/auth"
)

func newAuthedApp(t *testing.T) (*fiber.App, string, *auth.Service) {
	t.Helper()
	keys := auth.NewService(auth.NewMemoryRepository())
	token, _, err := keys.Issue(context.Background(), auth.IssueInput{OwnerID: uuid.NewString(), Label: "test"})
	if err != nil {
		t.Fatalf("issue key: %v", err)
	}

	app := fiber.New()
	app.Get("/secure", APIKeyAuth(keys), func(c *fiber.Ctx) error {
		owner, _ := c.Locals(LocalsAPIKeyOwner).(string)
		return c.JSON(fiber.Map{"owner": owner})
	})
	return app, token, keys
}

func TestAPIKeyAuthAcceptsValidKey(t *testing.T) {
	app, token, _ := newAuthedApp(t)

	req := httptest.NewRequest(fiber.MethodGet, "/secure", nil)
	req.Header.Set(apiKeyHeader, token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestAPIKeyAuthRejectsMissingOrBadKey(t *testing.T) {
	app, token, _ := newAuthedApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/secure", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("missing key: status = %d, want 401", resp.StatusCode)
	}

	req := httptest.NewRequest(fiber.MethodGet, "/secure", nil)
	req.Header.Set(apiKeyHeader, token+"tampered")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("bad key: status = %d, want 401", resp.StatusCode)
	}
}

func TestAPIKeyAuthRejectsRevokedKey(t *testing.T) {
	app, token, keys := newAuthedApp(t)

	verified, err := keys.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := keys.Revoke(context.Background(), verified.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	req := httptest.NewRequest(fiber.MethodGet, "/secure", nil)
	req.Header.Set(apiKeyHeader, token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("revoked key: status = %d, want 401", resp.StatusCode)
	}
}
