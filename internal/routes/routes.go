package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/paisa-pay/paisa_pay/internal/auth"
	"github.com/paisa-pay/paisa_pay/internal/config"
	"github.com/paisa-pay/paisa_pay/internal/ledger"
	"github.com/paisa-pay/paisa_pay/internal/middleware"
	"github.com/paisa-pay/paisa_pay/internal/notification"
	"github.com/paisa-pay/paisa_pay/internal/query"
	"github.com/paisa-pay/paisa_pay/internal/registry"
	"github.com/paisa-pay/paisa_pay/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	// Storage: Postgres when available, in-memory fallbacks in dev. The user
	// repository and the in-memory ledger share state so user creation can
	// provision the zero-balance wallet.
	var (
		store    ledger.Store
		userRepo registry.Repository
		keyRepo  auth.Repository
	)
	if d.DB != nil {
		store = ledger.NewPostgresStore(d.DB)
		userRepo = registry.NewPostgresRepository(d.DB)
		keyRepo = auth.NewPostgresRepository(d.DB)
	} else {
		mem := ledger.NewMemory()
		store = mem
		userRepo = registry.NewMemoryRepository(mem)
		keyRepo = auth.NewMemoryRepository()
	}

	notifier := notification.NewLoggerNotifier(d.Logger)
	limits := wallet.Limits{Min: d.Cfg.MinAmount, Max: d.Cfg.MaxAmount}

	userSvc := registry.NewService(userRepo)
	walletSvc := wallet.NewService(store, notifier, limits)
	querySvc := query.NewService(store)
	keySvc := auth.NewService(keyRepo)

	userHandler := registry.NewHandler(userSvc)
	walletHandler := wallet.NewHandler(walletSvc, userSvc)
	queryHandler := query.NewHandler(querySvc, userSvc)
	keyHandler := auth.NewHandler(keySvc)

	api := app.Group("/api")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Key management stays public so a fresh deployment can mint its first
	// key, but under the tight mutation budget.
	RegisterKeyRoutes(api, keyHandler, middleware.RateLimiter(d.Cache, middleware.RateLimit{
		Requests: d.Cfg.WalletRateLimitRequests,
		Window:   d.Cfg.WalletRateLimitWindow,
	}, "keys"))

	// Everything past this point requires an API key.
	protected := api.Group("", middleware.APIKeyAuth(keySvc))
	protected.Use(middleware.RateLimiter(d.Cache, middleware.RateLimit{
		Requests: d.Cfg.RateLimitRequests,
		Window:   d.Cfg.RateLimitWindow,
	}, "api"))

	RegisterUserRoutes(protected, userHandler)
	RegisterWalletRoutes(protected, walletHandler, d)
	RegisterTransactionRoutes(protected, queryHandler)

	return nil
}
