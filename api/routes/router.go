package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/orderledger-backend/api/controllers"
	ordercontrollers "github.com/angelmondragon/orderledger-backend/api/controllers/orders"
	"github.com/angelmondragon/orderledger-backend/api/middleware"
	"github.com/angelmondragon/orderledger-backend/internal/auth"
	"github.com/angelmondragon/orderledger-backend/internal/customers"
	"github.com/angelmondragon/orderledger-backend/internal/orders"
	product "github.com/angelmondragon/orderledger-backend/internal/products"
	"github.com/angelmondragon/orderledger-backend/pkg/auth/session"
	"github.com/angelmondragon/orderledger-backend/pkg/config"
	"github.com/angelmondragon/orderledger-backend/pkg/enums"
	"github.com/angelmondragon/orderledger-backend/pkg/logger"
	"github.com/angelmondragon/orderledger-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/orderledger-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// RedisStore is the slice of the Redis client the HTTP layer relies on.
type RedisStore interface {
	pkgredis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Ping(ctx context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisStore RedisStore,
	sessionManager sessionManager,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	authService auth.Service,
	registerService auth.RegisterService,
	productService product.Service,
	customerService customers.Service,
	orderService orders.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Recoverer(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.CORS),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterUsernameLimit,
	)
	idempotent := middleware.Idempotency(redisStore, cfg.Idempotency.TTL, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, redisStore, logg))
	})
	if cfg.FeatureFlags.MetricsEnabled && gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/products", controllers.ListProducts(productService, logg))
	r.Get("/product-buy/{code}", controllers.ProductPricing(productService, logg))

	r.With(middleware.AuthRateLimit(loginPolicy, redisStore, logg)).Post("/login", controllers.AuthLogin(authService, logg))
	r.With(middleware.AuthRateLimit(registerPolicy, redisStore, logg), idempotent).Post("/register", controllers.AuthRegister(registerService, logg))
	r.Route("/auth", func(r chi.Router) {
		r.Post("/logout", controllers.AuthLogout(sessionManager, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(sessionManager, cfg.JWT, logg))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))
		r.Use(idempotent)

		r.Post("/cadastro", controllers.UpsertCustomer(customerService, logg))
		r.Post("/check-cadastro", controllers.CheckCustomerComplete(customerService, logg))
		r.Get("/get-user-info", controllers.GetCustomer(customerService, logg))
		r.Get("/cadastropage", controllers.GetCustomerByUsername(customerService, logg))
		r.Put("/updatecadastro/{id}", controllers.UpdateCustomer(customerService, logg))
		r.Get("/customers", controllers.SearchCustomers(customerService, logg))

		r.Post("/add-to-order", ordercontrollers.AddToOrder(orderService, logg))
		r.Patch("/editproduct/{productId}", ordercontrollers.EditItem(orderService, logg))
		r.Delete("/delete-product", ordercontrollers.DeleteItem(orderService, logg))
		r.Delete("/delete-order", ordercontrollers.DeleteOrder(orderService, logg))
		r.Patch("/save-notes", ordercontrollers.SaveNotes(orderService, logg))
		r.Patch("/submit-order", ordercontrollers.Submit(orderService, logg))
		r.Post("/revertOrder", ordercontrollers.RevertBasic(orderService, logg))
		r.Post("/checkOtherOpenedOrders", ordercontrollers.CheckOtherOpened(orderService, logg))
		r.Post("/orderStatus", ordercontrollers.OrderStatus(orderService, logg))
		r.Post("/update-ipi", ordercontrollers.UpdateIPI(orderService, logg))
		r.Get("/orders", ordercontrollers.List(orderService, logg))
		r.Get("/order-details/{id}", ordercontrollers.Details(orderService, logg))
		r.Get("/modalproducts/{id}", ordercontrollers.Items(orderService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin))

			r.Put("/updatecadastroadmin/{id}", controllers.UpdateCustomer(customerService, logg))
			r.Delete("/deleteCustomer/{id}", controllers.DeleteCustomer(customerService, logg))
			r.Get("/allcustomers", controllers.ListAllCustomers(customerService, logg))

			r.Post("/add-to-order-admin", ordercontrollers.AddToOrderAdmin(orderService, logg))
			r.Patch("/finishOrder", ordercontrollers.Finish(orderService, logg))
			r.Patch("/receiveOrder", ordercontrollers.Receive(orderService, logg))
			r.Patch("/revertOrder", ordercontrollers.RevertGuarded(orderService, logg))
			r.Get("/orders-admin", ordercontrollers.ListAdmin(orderService, logg))
		})
	})

	return r
}
