package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/paisa-pay/paisa_pay/internal/middleware"
	"github.com/paisa-pay/paisa_pay/internal/wallet"
)

// RegisterWalletRoutes wires the wallet mutation endpoint. Mutations carry a
// tighter rate budget than reads and honor Idempotency-Key replay.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler, d Deps) {
	mutationLimit := middleware.RateLimiter(d.Cache, middleware.RateLimit{
		Requests: d.Cfg.WalletRateLimitRequests,
		Window:   d.Cfg.WalletRateLimitWindow,
	}, "wallet")
	idem := middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)

	r.Put("/wallets/:userID", mutationLimit, idem, h.Update)
}
