package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bazarika/bazarika-backend/api/controllers"
	"github.com/bazarika/bazarika-backend/api/middleware"
	cartsvc "github.com/bazarika/bazarika-backend/internal/cart"
	checkoutsvc "github.com/bazarika/bazarika-backend/internal/checkout"
	"github.com/bazarika/bazarika-backend/internal/inventory"
	"github.com/bazarika/bazarika-backend/internal/notifications"
	ordersvc "github.com/bazarika/bazarika-backend/internal/orders"
	"github.com/bazarika/bazarika-backend/internal/payments"
	productsvc "github.com/bazarika/bazarika-backend/internal/products"
	returnsvc "github.com/bazarika/bazarika-backend/internal/returns"
	"github.com/bazarika/bazarika-backend/pkg/config"
	"github.com/bazarika/bazarika-backend/pkg/enums"
	"github.com/bazarika/bazarika-backend/pkg/logger"
	pkgredis "github.com/bazarika/bazarika-backend/pkg/redis"
)

// Services bundles everything the HTTP surface depends on.
type Services struct {
	Products      productsvc.Service
	Inventory     inventory.Service
	Cart          cartsvc.Service
	Checkout      checkoutsvc.Service
	Orders        ordersvc.Service
	Returns       returnsvc.Service
	Payments      payments.Service
	Notifications notifications.Service
}

// Pinger is the readiness probe surface for backing stores.
type Pinger interface {
	Ping(ctx context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	database Pinger,
	redisClient *pkgredis.Client,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	var cache Pinger
	if redisClient != nil {
		cache = redisClient
	}

	limiter := rateLimitStore(redisClient)
	availabilityLimit := middleware.RateLimit(limiter, middleware.RateLimitPolicy{
		Name:   "availability",
		Window: cfg.RateLimit.AvailabilityWindow,
		Limit:  cfg.RateLimit.AvailabilityLimit,
	}, logg)
	checkoutLimit := middleware.RateLimit(limiter, middleware.RateLimitPolicy{
		Name:   "checkout-start",
		Window: cfg.RateLimit.CheckoutWindow,
		Limit:  cfg.RateLimit.CheckoutLimit,
	}, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, database, cache, logg))
	})

	// Public catalog.
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(svcs.Products, logg))
		r.With(availabilityLimit).Post("/availability", controllers.CheckAvailability(svcs.Inventory, logg))
		r.Get("/{productID}", controllers.GetProduct(svcs.Products, logg))
	})

	// Authenticated customer surface.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore(redisClient), logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(svcs.Cart, logg))
			r.Delete("/", controllers.ClearCart(svcs.Cart, logg))
			r.Post("/items", controllers.AddCartItem(svcs.Cart, logg))
			r.Put("/items/{itemID}", controllers.UpdateCartItem(svcs.Cart, logg))
			r.Delete("/items/{itemID}", controllers.RemoveCartItem(svcs.Cart, logg))
		})

		r.Route("/checkout/sessions", func(r chi.Router) {
			r.With(checkoutLimit).Post("/", controllers.StartCheckout(svcs.Checkout, logg))
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", controllers.GetCheckoutSession(svcs.Checkout, logg))
				r.Put("/address", controllers.SetShippingAddress(svcs.Checkout, logg))
				r.Put("/payment-method", controllers.SetPaymentMethod(svcs.Checkout, logg))
				r.Post("/review", controllers.ReviewCheckout(svcs.Checkout, logg))
				r.Post("/confirm", controllers.ConfirmCheckout(svcs.Checkout, logg))
				r.Delete("/", controllers.AbandonCheckout(svcs.Checkout, logg))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(svcs.Orders, logg))
			r.Route("/{orderID}", func(r chi.Router) {
				r.Get("/", controllers.GetOrder(svcs.Orders, logg))
				r.Get("/history", controllers.ListOrderHistory(svcs.Orders, logg))
				r.Get("/payments", controllers.ListOrderPayments(svcs.Payments, logg))
				r.Post("/cancel", controllers.CancelOrder(svcs.Orders, logg))
				r.Post("/returns", controllers.CreateReturn(svcs.Returns, logg))
			})
		})

		r.Route("/returns", func(r chi.Router) {
			r.Get("/", controllers.ListReturns(svcs.Returns, logg))
			r.Get("/{returnID}", controllers.GetReturn(svcs.Returns, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
		})

		// Vendor surface.
		r.Route("/vendor", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.RoleVendor), logg))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.VendorListProducts(svcs.Products, logg))
				r.Post("/", controllers.VendorCreateProduct(svcs.Products, logg))
				r.Patch("/{productID}", controllers.VendorUpdateProduct(svcs.Products, logg))
			})
			r.Put("/inventory/{productID}", controllers.VendorSetStock(svcs.Products, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.VendorListOrders(svcs.Orders, logg))
				r.Route("/{vendorOrderID}", func(r chi.Router) {
					r.Get("/", controllers.VendorGetOrder(svcs.Orders, logg))
					r.Post("/status", controllers.VendorUpdateOrderStatus(svcs.Orders, logg))
					r.Post("/cod/collect", controllers.VendorCollectCOD(svcs.Payments, logg))
				})
			})
			r.Get("/earnings", controllers.VendorEarnings(svcs.Orders, logg))

			r.Route("/returns", func(r chi.Router) {
				r.Get("/", controllers.VendorListReturns(svcs.Returns, logg))
				r.Route("/{returnID}", func(r chi.Router) {
					r.Post("/decision", controllers.VendorDecideReturn(svcs.Returns, logg))
					r.Post("/receive", controllers.VendorReceiveReturn(svcs.Returns, logg))
					r.Post("/refund", controllers.VendorRefundReturn(svcs.Returns, logg))
				})
			})
		})
	})

	return r
}

// Idempotency takes a nil-able interface; a nil *Client must not slip in as a
// non-nil interface value.
func idempotencyStore(client *pkgredis.Client) pkgredis.IdempotencyStore {
	if client == nil {
		return nil
	}
	return client
}

// Same nil-interface guard for the rate limiter.
func rateLimitStore(client *pkgredis.Client) middleware.RateLimitStore {
	if client == nil {
		return nil
	}
	return client
}
