package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/jtorres-dev/storefront-backend/api/middleware"
	internalorders "github.com/jtorres-dev/storefront-backend/internal/orders"
	"github.com/jtorres-dev/storefront-backend/pkg/db/models"
	"github.com/jtorres-dev/storefront-backend/pkg/enums"
)

func adminRequest(req *http.Request, actorID uuid.UUID, role enums.UserRole) *http.Request {
	ctx := middleware.WithUserID(req.Context(), actorID.String())
	ctx = middleware.WithRole(ctx, string(role))
	return req.WithContext(ctx)
}

func TestAdminUpdateOrderStatus(t *testing.T) {
	actorID := uuid.New()
	order := newStoredOrder(uuid.New(), enums.OrderStatusShipped)
	svc := stubOrdersService{
		adminFn: func(ctx context.Context, input internalorders.AdminStatusInput) (*models.Order, error) {
			if input.OrderID != order.ID || input.ActorUserID != actorID {
				t.Fatalf("unexpected input %+v", input)
			}
			if input.NextStatus != enums.OrderStatusShipped {
				t.Fatalf("unexpected status %s", input.NextStatus)
			}
			return order, nil
		},
	}

	handler := AdminUpdateOrderStatus(svc, nil)
	body := strings.NewReader(`{"status":"shipped"}`)
	req := adminRequest(httptest.NewRequest(http.MethodPatch, "/", body), actorID, enums.RoleAdmin)
	req = withOrderID(req, order.ID)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data internalorders.OrderDetail `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Status != enums.OrderStatusShipped {
		t.Fatalf("unexpected status %s", envelope.Data.Status)
	}
}

func TestAdminUpdateOrderStatusForbiddenForCustomers(t *testing.T) {
	svc := stubOrdersService{
		adminFn: func(ctx context.Context, input internalorders.AdminStatusInput) (*models.Order, error) {
			t.Fatalf("service must not be called without the admin role")
			return nil, nil
		},
	}

	handler := AdminUpdateOrderStatus(svc, nil)
	body := strings.NewReader(`{"status":"shipped"}`)
	req := adminRequest(httptest.NewRequest(http.MethodPatch, "/", body), uuid.New(), enums.RoleCustomer)
	req = withOrderID(req, uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestAdminUpdateOrderStatusRejectsUnknownStatus(t *testing.T) {
	svc := stubOrdersService{
		adminFn: func(ctx context.Context, input internalorders.AdminStatusInput) (*models.Order, error) {
			t.Fatalf("service must not be called for an unknown status")
			return nil, nil
		},
	}

	handler := AdminUpdateOrderStatus(svc, nil)
	body := strings.NewReader(`{"status":"teleported"}`)
	req := adminRequest(httptest.NewRequest(http.MethodPatch, "/", body), uuid.New(), enums.RoleAdmin)
	req = withOrderID(req, uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
