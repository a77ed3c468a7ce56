package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bazarika/bazarika-backend/api/middleware"
	ordersvc "github.com/bazarika/bazarika-backend/internal/orders"
	"github.com/bazarika/bazarika-backend/internal/payments"
	"github.com/bazarika/bazarika-backend/pkg/db/models"
	"github.com/bazarika/bazarika-backend/pkg/enums"
	pkgerrors "github.com/bazarika/bazarika-backend/pkg/errors"
	"github.com/bazarika/bazarika-backend/pkg/pagination"
)

type stubOrderService struct {
	listVendorFn    func(vendorID uuid.UUID, status *enums.VendorOrderStatus, params pagination.Params) ([]ordersvc.VendorOrderDTO, string, error)
	updateStatusFn  func(vendorID, vendorOrderID, actorUserID uuid.UUID, input ordersvc.UpdateStatusInput) (*ordersvc.VendorOrderDTO, error)
	earningsSummary *ordersvc.EarningsSummary
}

func (s stubOrderService) CreateFromCheckout(context.Context, *gorm.DB, ordersvc.CreateOrderInput) (*models.Order, error) {
	panic("unimplemented")
}

func (s stubOrderService) GetOrder(context.Context, uuid.UUID, uuid.UUID) (*ordersvc.OrderDTO, error) {
	return &ordersvc.OrderDTO{}, nil
}

func (s stubOrderService) ListOrders(context.Context, uuid.UUID, pagination.Params) ([]ordersvc.OrderDTO, string, error) {
	return nil, "", nil
}

func (s stubOrderService) ListHistory(context.Context, uuid.UUID, uuid.UUID) ([]ordersvc.HistoryDTO, error) {
	return nil, nil
}

func (s stubOrderService) CancelOrder(context.Context, uuid.UUID, uuid.UUID, *string) (*ordersvc.OrderDTO, error) {
	return &ordersvc.OrderDTO{}, nil
}

func (s stubOrderService) GetVendorOrder(context.Context, uuid.UUID, uuid.UUID) (*ordersvc.VendorOrderDTO, error) {
	return &ordersvc.VendorOrderDTO{}, nil
}

func (s stubOrderService) ListVendorOrders(_ context.Context, vendorID uuid.UUID, status *enums.VendorOrderStatus, params pagination.Params) ([]ordersvc.VendorOrderDTO, string, error) {
	if s.listVendorFn != nil {
		return s.listVendorFn(vendorID, status, params)
	}
	return nil, "", nil
}

func (s stubOrderService) VendorUpdateStatus(_ context.Context, vendorID, vendorOrderID, actorUserID uuid.UUID, input ordersvc.UpdateStatusInput) (*ordersvc.VendorOrderDTO, error) {
	if s.updateStatusFn != nil {
		return s.updateStatusFn(vendorID, vendorOrderID, actorUserID, input)
	}
	return &ordersvc.VendorOrderDTO{}, nil
}

func (s stubOrderService) VendorEarnings(context.Context, uuid.UUID) (*ordersvc.EarningsSummary, error) {
	if s.earningsSummary != nil {
		return s.earningsSummary, nil
	}
	return &ordersvc.EarningsSummary{}, nil
}

type stubPaymentService struct {
	collectFn func(vendorID, vendorOrderID, actorUserID uuid.UUID, input payments.CollectCODInput) (*payments.TransactionDTO, error)
}

func (s stubPaymentService) CreatePending(context.Context, *gorm.DB, uuid.UUID, enums.PaymentMethod, int64) (*models.PaymentTransaction, error) {
	panic("unimplemented")
}

func (s stubPaymentService) CreateRefund(context.Context, *gorm.DB, uuid.UUID, uuid.UUID, uuid.UUID, enums.PaymentMethod, int64) (*models.PaymentTransaction, error) {
	panic("unimplemented")
}

func (s stubPaymentService) CollectCOD(_ context.Context, vendorID, vendorOrderID, actorUserID uuid.UUID, input payments.CollectCODInput) (*payments.TransactionDTO, error) {
	if s.collectFn != nil {
		return s.collectFn(vendorID, vendorOrderID, actorUserID, input)
	}
	return &payments.TransactionDTO{}, nil
}

func (s stubPaymentService) ListByOrder(context.Context, uuid.UUID, uuid.UUID) ([]payments.TransactionDTO, error) {
	return nil, nil
}

func asVendorActor(req *http.Request, userID, vendorID uuid.UUID) *http.Request {
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithVendorID(ctx, vendorID.String())
	return req.WithContext(ctx)
}

func TestVendorListOrdersParsesStatusFilter(t *testing.T) {
	vendorID := uuid.New()
	var gotStatus *enums.VendorOrderStatus
	var gotLimit int
	svc := stubOrderService{
		listVendorFn: func(id uuid.UUID, status *enums.VendorOrderStatus, params pagination.Params) ([]ordersvc.VendorOrderDTO, string, error) {
			if id != vendorID {
				t.Fatalf("unexpected vendor %s", id)
			}
			gotStatus = status
			gotLimit = params.Limit
			return []ordersvc.VendorOrderDTO{{ID: uuid.New()}}, "next", nil
		},
	}

	handler := VendorListOrders(svc, nil)
	req := asVendorActor(httptest.NewRequest(http.MethodGet, "/?status=shipped&limit=10", nil), uuid.New(), vendorID)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotStatus == nil || *gotStatus != enums.VendorOrderStatusShipped {
		t.Fatalf("status filter not forwarded: %v", gotStatus)
	}
	if gotLimit != 10 {
		t.Fatalf("limit not forwarded: %d", gotLimit)
	}

	var envelope struct {
		Data struct {
			Cursor string `json:"cursor"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Cursor != "next" {
		t.Fatalf("cursor missing from payload")
	}
}

func TestVendorUpdateOrderStatusMapsLifecycleConflict(t *testing.T) {
	svc := stubOrderService{
		updateStatusFn: func(_, _, _ uuid.UUID, _ ordersvc.UpdateStatusInput) (*ordersvc.VendorOrderDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot move from delivered to pending")
		},
	}

	router := chi.NewRouter()
	router.Post("/vendor/orders/{vendorOrderID}/status", VendorUpdateOrderStatus(svc, nil))

	body := `{"status":"pending"}`
	req := asVendorActor(
		httptest.NewRequest(http.MethodPost, "/vendor/orders/"+uuid.NewString()+"/status", strings.NewReader(body)),
		uuid.New(), uuid.New(),
	)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeStateConflict) {
		t.Fatalf("unexpected error code %q", envelope.Error.Code)
	}
}

func TestVendorCollectCODRecordsActor(t *testing.T) {
	vendorID := uuid.New()
	actorID := uuid.New()
	vendorOrderID := uuid.New()
	var sawActor uuid.UUID
	svc := stubPaymentService{
		collectFn: func(vID, voID, aID uuid.UUID, input payments.CollectCODInput) (*payments.TransactionDTO, error) {
			if vID != vendorID || voID != vendorOrderID {
				t.Fatalf("wrong ids forwarded")
			}
			sawActor = aID
			if input.AmountPaisa != 57500 {
				t.Fatalf("unexpected amount %d", input.AmountPaisa)
			}
			return &payments.TransactionDTO{ID: uuid.New(), AmountPaisa: input.AmountPaisa}, nil
		},
	}

	router := chi.NewRouter()
	router.Post("/vendor/orders/{vendorOrderID}/cod/collect", VendorCollectCOD(svc, nil))

	body := `{"amount_paisa":57500}`
	req := asVendorActor(
		httptest.NewRequest(http.MethodPost, "/vendor/orders/"+vendorOrderID.String()+"/cod/collect", strings.NewReader(body)),
		actorID, vendorID,
	)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if sawActor != actorID {
		t.Fatalf("actor not forwarded: %s", sawActor)
	}
}

func TestVendorEarningsRequiresVendorContext(t *testing.T) {
	handler := VendorEarnings(stubOrderService{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}
