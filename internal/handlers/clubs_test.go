package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

// The invalid-input paths reject before any database access, so the handler
// can run against a nil DB here.
func TestSetClubPaymentRejectsBadInput(t *testing.T) {
	t.Parallel()

	app := fiber.New()
	app.Put("/clubs/:id/payment", SetClubPayment(nil))

	tests := []struct {
		name string
		path string
		body string
	}{
		{"bad_club_id", "/clubs/not-a-uuid/payment", `{"amount": 50}`},
		{"bad_body", "/clubs/6f1b0a1e-9c1d-4f4a-8a2e-000000000001/payment", `not json`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest("PUT", tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != fiber.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}
