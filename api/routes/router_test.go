package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	cartsvc "github.com/bazarika/bazarika-backend/internal/cart"
	checkoutsvc "github.com/bazarika/bazarika-backend/internal/checkout"
	"github.com/bazarika/bazarika-backend/internal/inventory"
	"github.com/bazarika/bazarika-backend/internal/notifications"
	ordersvc "github.com/bazarika/bazarika-backend/internal/orders"
	"github.com/bazarika/bazarika-backend/internal/payments"
	productsvc "github.com/bazarika/bazarika-backend/internal/products"
	returnsvc "github.com/bazarika/bazarika-backend/internal/returns"
	pkgAuth "github.com/bazarika/bazarika-backend/pkg/auth"
	"github.com/bazarika/bazarika-backend/pkg/config"
	"github.com/bazarika/bazarika-backend/pkg/db/models"
	"github.com/bazarika/bazarika-backend/pkg/enums"
	"github.com/bazarika/bazarika-backend/pkg/logger"
	"github.com/bazarika/bazarika-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubProductService struct{}

func (stubProductService) CreateProduct(ctx context.Context, vendorID uuid.UUID, input productsvc.CreateProductInput) (*productsvc.ProductDTO, error) {
	return &productsvc.ProductDTO{}, nil
}

func (stubProductService) UpdateProduct(ctx context.Context, vendorID, productID uuid.UUID, input productsvc.UpdateProductInput) (*productsvc.ProductDTO, error) {
	return &productsvc.ProductDTO{}, nil
}

func (stubProductService) GetProduct(ctx context.Context, id uuid.UUID) (*productsvc.ProductDTO, error) {
	return &productsvc.ProductDTO{}, nil
}

func (stubProductService) ListProducts(ctx context.Context, params pagination.Params) ([]productsvc.ProductDTO, string, error) {
	return nil, "", nil
}

func (stubProductService) ListVendorProducts(ctx context.Context, vendorID uuid.UUID, params pagination.Params) ([]productsvc.ProductDTO, string, error) {
	return nil, "", nil
}

func (stubProductService) SetStock(ctx context.Context, vendorID, productID uuid.UUID, input productsvc.SetStockInput) error {
	return nil
}

type stubInventoryService struct{}

func (stubInventoryService) CheckAvailability(ctx context.Context, lines []inventory.Line) ([]inventory.Availability, error) {
	return nil, nil
}

func (stubInventoryService) Reserve(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, lines []inventory.Line) error {
	panic("unimplemented")
}

func (stubInventoryService) Confirm(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	panic("unimplemented")
}

func (stubInventoryService) Release(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, reason string) error {
	panic("unimplemented")
}

func (stubInventoryService) ReleaseLines(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, lines []inventory.Line, reason string) error {
	panic("unimplemented")
}

func (stubInventoryService) Reassign(ctx context.Context, tx *gorm.DB, fromRef, toRef uuid.UUID) error {
	panic("unimplemented")
}

func (stubInventoryService) SweepExpired(ctx context.Context, tx *gorm.DB, batchSize int) (*inventory.SweepResult, error) {
	panic("unimplemented")
}

func (stubInventoryService) SetOnHand(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, qty int) error {
	panic("unimplemented")
}

type stubCartService struct{}

func (stubCartService) AddItem(ctx context.Context, userID uuid.UUID, input cartsvc.AddItemInput) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{}, nil
}

func (stubCartService) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, input cartsvc.UpdateItemInput) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{}, nil
}

func (stubCartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{}, nil
}

func (stubCartService) Clear(ctx context.Context, userID uuid.UUID) error {
	return nil
}

func (stubCartService) GetCart(ctx context.Context, userID uuid.UUID) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{}, nil
}

type stubCheckoutService struct{}

func (stubCheckoutService) Start(ctx context.Context, userID uuid.UUID) (*checkoutsvc.SessionDTO, error) {
	return &checkoutsvc.SessionDTO{}, nil
}

func (stubCheckoutService) GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*checkoutsvc.SessionDTO, error) {
	return &checkoutsvc.SessionDTO{}, nil
}

func (stubCheckoutService) SetShippingAddress(ctx context.Context, userID, sessionID uuid.UUID, input checkoutsvc.AddressInput) (*checkoutsvc.SessionDTO, error) {
	return &checkoutsvc.SessionDTO{}, nil
}

func (stubCheckoutService) SetPaymentMethod(ctx context.Context, userID, sessionID uuid.UUID, input checkoutsvc.PaymentMethodInput) (*checkoutsvc.SessionDTO, error) {
	return &checkoutsvc.SessionDTO{}, nil
}

func (stubCheckoutService) Review(ctx context.Context, userID, sessionID uuid.UUID) (*checkoutsvc.SessionDTO, error) {
	return &checkoutsvc.SessionDTO{}, nil
}

func (stubCheckoutService) Confirm(ctx context.Context, userID, sessionID uuid.UUID, input checkoutsvc.ConfirmInput) (*checkoutsvc.ConfirmResult, error) {
	return &checkoutsvc.ConfirmResult{}, nil
}

func (stubCheckoutService) Abandon(ctx context.Context, userID, sessionID uuid.UUID) error {
	return nil
}

type stubOrdersService struct {
	listVendor func(ctx context.Context, vendorID uuid.UUID) ([]ordersvc.VendorOrderDTO, string, error)
}

func (stubOrdersService) CreateFromCheckout(ctx context.Context, tx *gorm.DB, input ordersvc.CreateOrderInput) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*ordersvc.OrderDTO, error) {
	return &ordersvc.OrderDTO{}, nil
}

func (stubOrdersService) ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]ordersvc.OrderDTO, string, error) {
	return nil, "", nil
}

func (stubOrdersService) ListHistory(ctx context.Context, userID, orderID uuid.UUID) ([]ordersvc.HistoryDTO, error) {
	return nil, nil
}

func (stubOrdersService) CancelOrder(ctx context.Context, userID, orderID uuid.UUID, reason *string) (*ordersvc.OrderDTO, error) {
	return &ordersvc.OrderDTO{}, nil
}

func (stubOrdersService) GetVendorOrder(ctx context.Context, vendorID, vendorOrderID uuid.UUID) (*ordersvc.VendorOrderDTO, error) {
	return &ordersvc.VendorOrderDTO{}, nil
}

func (s stubOrdersService) ListVendorOrders(ctx context.Context, vendorID uuid.UUID, status *enums.VendorOrderStatus, params pagination.Params) ([]ordersvc.VendorOrderDTO, string, error) {
	if s.listVendor != nil {
		return s.listVendor(ctx, vendorID)
	}
	return nil, "", nil
}

func (stubOrdersService) VendorUpdateStatus(ctx context.Context, vendorID, vendorOrderID, actorUserID uuid.UUID, input ordersvc.UpdateStatusInput) (*ordersvc.VendorOrderDTO, error) {
	return &ordersvc.VendorOrderDTO{}, nil
}

func (stubOrdersService) VendorEarnings(ctx context.Context, vendorID uuid.UUID) (*ordersvc.EarningsSummary, error) {
	return &ordersvc.EarningsSummary{}, nil
}

type stubReturnsService struct{}

func (stubReturnsService) CreateRequest(ctx context.Context, userID, orderID uuid.UUID, input returnsvc.CreateRequestInput) ([]returnsvc.RequestDTO, error) {
	return nil, nil
}

func (stubReturnsService) GetRequest(ctx context.Context, userID, requestID uuid.UUID) (*returnsvc.RequestDTO, error) {
	return &returnsvc.RequestDTO{}, nil
}

func (stubReturnsService) ListUserRequests(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]returnsvc.RequestDTO, string, error) {
	return nil, "", nil
}

func (stubReturnsService) ListVendorRequests(ctx context.Context, vendorID uuid.UUID, status *enums.ReturnStatus, params pagination.Params) ([]returnsvc.RequestDTO, string, error) {
	return nil, "", nil
}

func (stubReturnsService) VendorDecide(ctx context.Context, vendorID, requestID, actorUserID uuid.UUID, input returnsvc.DecisionInput) (*returnsvc.RequestDTO, error) {
	return &returnsvc.RequestDTO{}, nil
}

func (stubReturnsService) MarkItemsReceived(ctx context.Context, vendorID, requestID, actorUserID uuid.UUID, input returnsvc.ReceiveInput) (*returnsvc.RequestDTO, error) {
	return &returnsvc.RequestDTO{}, nil
}

func (stubReturnsService) ProcessRefund(ctx context.Context, vendorID, requestID, actorUserID uuid.UUID) (*returnsvc.RequestDTO, error) {
	return &returnsvc.RequestDTO{}, nil
}

type stubPaymentsService struct{}

func (stubPaymentsService) CreatePending(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, method enums.PaymentMethod, amountPaisa int64) (*models.PaymentTransaction, error) {
	panic("unimplemented")
}

func (stubPaymentsService) CreateRefund(ctx context.Context, tx *gorm.DB, orderID, vendorOrderID, returnRequestID uuid.UUID, method enums.PaymentMethod, amountPaisa int64) (*models.PaymentTransaction, error) {
	panic("unimplemented")
}

func (stubPaymentsService) CollectCOD(ctx context.Context, vendorID, vendorOrderID, actorUserID uuid.UUID, input payments.CollectCODInput) (*payments.TransactionDTO, error) {
	return &payments.TransactionDTO{}, nil
}

func (stubPaymentsService) ListByOrder(ctx context.Context, userID, orderID uuid.UUID) ([]payments.TransactionDTO, error) {
	return nil, nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	return 0, nil
}

func (stubNotificationsService) Dispatch(ctx context.Context, rows []models.Notification) error {
	return nil
}

func (stubNotificationsService) RetryFailed(ctx context.Context, batchSize int) (*notifications.RetryResult, error) {
	return &notifications.RetryResult{}, nil
}

func (stubNotificationsService) PurgeOld(ctx context.Context) (int64, error) {
	return 0, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(cfg, logg, stubPinger{}, nil, Services{
		Products:      stubProductService{},
		Inventory:     stubInventoryService{},
		Cart:          stubCartService{},
		Checkout:      stubCheckoutService{},
		Orders:        stubOrdersService{},
		Returns:       stubReturnsService{},
		Payments:      stubPaymentsService{},
		Notifications: stubNotificationsService{},
	})
}

func customerToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.RoleCustomer,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func vendorToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	vendorID := uuid.New()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:   uuid.New(),
		Role:     enums.RoleVendor,
		VendorID: &vendorID,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthEndpointsArePublic(t *testing.T) {
	router := newTestRouter(testConfig())

	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s got %d", path, resp.Code)
		}
	}
}

func TestCatalogIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public catalog got %d", resp.Code)
	}
}

func TestCustomerRoutesRejectMissingToken(t *testing.T) {
	router := newTestRouter(testConfig())

	for _, path := range []string{"/api/v1/cart", "/api/v1/orders", "/api/v1/notifications"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s without token got %d", path, resp.Code)
		}
	}
}

func TestCustomerRoutesAcceptValidToken(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+customerToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for customer orders got %d", resp.Code)
	}
}

func TestVendorRoutesRequireVendorRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	asCustomer := httptest.NewRequest(http.MethodGet, "/api/v1/vendor/orders", nil)
	asCustomer.Header.Set("Authorization", "Bearer "+customerToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, asCustomer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer on vendor route got %d", resp.Code)
	}

	asVendor := httptest.NewRequest(http.MethodGet, "/api/v1/vendor/orders", nil)
	asVendor.Header.Set("Authorization", "Bearer "+vendorToken(t, cfg))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, asVendor)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for vendor on vendor route got %d", resp.Code)
	}
}

func TestVendorTokenCarriesVendorContext(t *testing.T) {
	cfg := testConfig()
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})

	var seenVendor uuid.UUID
	router := NewRouter(cfg, logg, stubPinger{}, nil, Services{
		Products:  stubProductService{},
		Inventory: stubInventoryService{},
		Cart:      stubCartService{},
		Checkout:  stubCheckoutService{},
		Orders: stubOrdersService{listVendor: func(ctx context.Context, vendorID uuid.UUID) ([]ordersvc.VendorOrderDTO, string, error) {
			seenVendor = vendorID
			return nil, "", nil
		}},
		Returns:       stubReturnsService{},
		Payments:      stubPaymentsService{},
		Notifications: stubNotificationsService{},
	})

	vendorID := uuid.New()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:   uuid.New(),
		Role:     enums.RoleVendor,
		VendorID: &vendorID,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/vendor/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if seenVendor != vendorID {
		t.Fatalf("expected vendor %s from token, service saw %s", vendorID, seenVendor)
	}
}

func TestUnknownStatusFilterRejected(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/vendor/orders?status=teleported", nil)
	req.Header.Set("Authorization", "Bearer "+vendorToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bogus status filter got %d", resp.Code)
	}
}
