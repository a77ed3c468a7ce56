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

	returnsvc "github.com/bazarika/bazarika-backend/internal/returns"
	"github.com/bazarika/bazarika-backend/pkg/enums"
	"github.com/bazarika/bazarika-backend/pkg/pagination"
)

type stubReturnService struct {
	createFn func(userID, orderID uuid.UUID, input returnsvc.CreateRequestInput) ([]returnsvc.RequestDTO, error)
	decideFn func(vendorID, requestID, actorUserID uuid.UUID, input returnsvc.DecisionInput) (*returnsvc.RequestDTO, error)
}

func (s stubReturnService) CreateRequest(_ context.Context, userID, orderID uuid.UUID, input returnsvc.CreateRequestInput) ([]returnsvc.RequestDTO, error) {
	if s.createFn != nil {
		return s.createFn(userID, orderID, input)
	}
	return []returnsvc.RequestDTO{{ID: uuid.New()}}, nil
}

func (s stubReturnService) GetRequest(context.Context, uuid.UUID, uuid.UUID) (*returnsvc.RequestDTO, error) {
	return &returnsvc.RequestDTO{}, nil
}

func (s stubReturnService) ListUserRequests(context.Context, uuid.UUID, pagination.Params) ([]returnsvc.RequestDTO, string, error) {
	return nil, "", nil
}

func (s stubReturnService) ListVendorRequests(context.Context, uuid.UUID, *enums.ReturnStatus, pagination.Params) ([]returnsvc.RequestDTO, string, error) {
	return nil, "", nil
}

func (s stubReturnService) VendorDecide(_ context.Context, vendorID, requestID, actorUserID uuid.UUID, input returnsvc.DecisionInput) (*returnsvc.RequestDTO, error) {
	if s.decideFn != nil {
		return s.decideFn(vendorID, requestID, actorUserID, input)
	}
	return &returnsvc.RequestDTO{}, nil
}

func (s stubReturnService) MarkItemsReceived(context.Context, uuid.UUID, uuid.UUID, uuid.UUID, returnsvc.ReceiveInput) (*returnsvc.RequestDTO, error) {
	return &returnsvc.RequestDTO{}, nil
}

func (s stubReturnService) ProcessRefund(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) (*returnsvc.RequestDTO, error) {
	return &returnsvc.RequestDTO{}, nil
}

func TestCreateReturnSplitsPerVendor(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()
	itemA := uuid.New()
	itemB := uuid.New()
	svc := stubReturnService{
		createFn: func(uID, oID uuid.UUID, input returnsvc.CreateRequestInput) ([]returnsvc.RequestDTO, error) {
			if uID != userID || oID != orderID {
				t.Fatalf("wrong ids forwarded")
			}
			if len(input.OrderItemIDs) != 2 {
				t.Fatalf("expected 2 items, got %d", len(input.OrderItemIDs))
			}
			return []returnsvc.RequestDTO{
				{ID: uuid.New(), OrderID: oID},
				{ID: uuid.New(), OrderID: oID},
			}, nil
		},
	}

	router := chi.NewRouter()
	router.Post("/orders/{orderID}/returns", CreateReturn(svc, nil))

	body := `{"order_item_ids":["` + itemA.String() + `","` + itemB.String() + `"],"reason":"damaged on arrival"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/orders/"+orderID.String()+"/returns", strings.NewReader(body)), userID)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	var envelope struct {
		Data struct {
			Items []returnsvc.RequestDTO `json:"items"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Items) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(envelope.Data.Items))
	}
}

func TestCreateReturnRequiresReason(t *testing.T) {
	router := chi.NewRouter()
	router.Post("/orders/{orderID}/returns", CreateReturn(stubReturnService{}, nil))

	body := `{"order_item_ids":["` + uuid.NewString() + `"]}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/orders/"+uuid.NewString()+"/returns", strings.NewReader(body)), uuid.New())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestVendorDecideReturnForwardsActor(t *testing.T) {
	vendorID := uuid.New()
	actorID := uuid.New()
	requestID := uuid.New()
	var sawActor uuid.UUID
	svc := stubReturnService{
		decideFn: func(vID, rID, aID uuid.UUID, input returnsvc.DecisionInput) (*returnsvc.RequestDTO, error) {
			if vID != vendorID || rID != requestID {
				t.Fatalf("wrong ids forwarded")
			}
			sawActor = aID
			if input.Status != enums.ReturnStatusApproved {
				t.Fatalf("unexpected status %s", input.Status)
			}
			return &returnsvc.RequestDTO{ID: rID, Status: input.Status}, nil
		},
	}

	router := chi.NewRouter()
	router.Post("/vendor/returns/{returnID}/decision", VendorDecideReturn(svc, nil))

	body := `{"status":"approved"}`
	req := asVendorActor(
		httptest.NewRequest(http.MethodPost, "/vendor/returns/"+requestID.String()+"/decision", strings.NewReader(body)),
		actorID, vendorID,
	)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if sawActor != actorID {
		t.Fatalf("actor not forwarded: %s", sawActor)
	}
}
