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

	checkoutsvc "github.com/bazarika/bazarika-backend/internal/checkout"
	pkgerrors "github.com/bazarika/bazarika-backend/pkg/errors"
)

type stubCheckoutService struct {
	startFn   func(userID uuid.UUID) (*checkoutsvc.SessionDTO, error)
	confirmFn func(userID, sessionID uuid.UUID, input checkoutsvc.ConfirmInput) (*checkoutsvc.ConfirmResult, error)
}

func (s stubCheckoutService) Start(_ context.Context, userID uuid.UUID) (*checkoutsvc.SessionDTO, error) {
	if s.startFn != nil {
		return s.startFn(userID)
	}
	return &checkoutsvc.SessionDTO{ID: uuid.New()}, nil
}

func (s stubCheckoutService) GetSession(context.Context, uuid.UUID, uuid.UUID) (*checkoutsvc.SessionDTO, error) {
	return &checkoutsvc.SessionDTO{}, nil
}

func (s stubCheckoutService) SetShippingAddress(context.Context, uuid.UUID, uuid.UUID, checkoutsvc.AddressInput) (*checkoutsvc.SessionDTO, error) {
	return &checkoutsvc.SessionDTO{}, nil
}

func (s stubCheckoutService) SetPaymentMethod(context.Context, uuid.UUID, uuid.UUID, checkoutsvc.PaymentMethodInput) (*checkoutsvc.SessionDTO, error) {
	return &checkoutsvc.SessionDTO{}, nil
}

func (s stubCheckoutService) Review(context.Context, uuid.UUID, uuid.UUID) (*checkoutsvc.SessionDTO, error) {
	return &checkoutsvc.SessionDTO{}, nil
}

func (s stubCheckoutService) Confirm(_ context.Context, userID, sessionID uuid.UUID, input checkoutsvc.ConfirmInput) (*checkoutsvc.ConfirmResult, error) {
	if s.confirmFn != nil {
		return s.confirmFn(userID, sessionID, input)
	}
	return &checkoutsvc.ConfirmResult{}, nil
}

func (s stubCheckoutService) Abandon(context.Context, uuid.UUID, uuid.UUID) error {
	return nil
}

func TestStartCheckoutCreated(t *testing.T) {
	userID := uuid.New()
	sessionID := uuid.New()
	svc := stubCheckoutService{startFn: func(id uuid.UUID) (*checkoutsvc.SessionDTO, error) {
		if id != userID {
			t.Fatalf("unexpected user %s", id)
		}
		return &checkoutsvc.SessionDTO{ID: sessionID}, nil
	}}

	handler := StartCheckout(svc, nil)
	req := asUser(httptest.NewRequest(http.MethodPost, "/", nil), userID)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	var envelope struct {
		Data checkoutsvc.SessionDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != sessionID {
		t.Fatalf("unexpected session %v", envelope.Data.ID)
	}
}

func TestConfirmCheckoutExpiredSessionIsGone(t *testing.T) {
	svc := stubCheckoutService{
		confirmFn: func(_, _ uuid.UUID, _ checkoutsvc.ConfirmInput) (*checkoutsvc.ConfirmResult, error) {
			return nil, pkgerrors.New(pkgerrors.CodeGone, "checkout session expired")
		},
	}

	router := chi.NewRouter()
	router.Post("/checkout/sessions/{sessionID}/confirm", ConfirmCheckout(svc, nil))

	req := asUser(
		httptest.NewRequest(http.MethodPost, "/checkout/sessions/"+uuid.NewString()+"/confirm", strings.NewReader(`{"agrees_to_terms":true}`)),
		uuid.New(),
	)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusGone {
		t.Fatalf("expected 410 got %d", resp.Code)
	}
}

func TestConfirmCheckoutRejectsMalformedSessionID(t *testing.T) {
	router := chi.NewRouter()
	router.Post("/checkout/sessions/{sessionID}/confirm", ConfirmCheckout(stubCheckoutService{}, nil))

	req := asUser(
		httptest.NewRequest(http.MethodPost, "/checkout/sessions/not-a-uuid/confirm", strings.NewReader(`{}`)),
		uuid.New(),
	)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	var envelope struct {
		Error struct {
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Details["field"] != "sessionID" {
		t.Fatalf("details should name the bad field: %v", envelope.Error.Details)
	}
}
