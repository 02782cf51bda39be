package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/jpolanco/cardwise/internal/infra/observability"
	"github.com/jpolanco/cardwise/internal/service"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(ledger *service.LedgerService, rec *service.RecommendationService, sav *service.SavingsService, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(requestMetrics(metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(ledger, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// Dashboard & accounts
		r.Get("/dashboard", dashboardHandler(ledger, logger))
		r.Post("/balance", updateBalanceHandler(ledger, logger))
		r.Put("/income", setIncomeHandler(ledger, logger))

		// Credit cards
		r.Get("/cards", listCardsHandler(ledger, logger))
		r.Post("/cards", createCardHandler(ledger, logger))
		r.Get("/cards/{cardId}", getCardHandler(ledger, logger))
		r.Put("/cards/{cardId}", updateCardHandler(ledger, logger))
		r.Delete("/cards/{cardId}", deleteCardHandler(ledger, logger))
		r.Post("/cards/{cardId}/pay", payCardHandler(ledger, logger))

		// Fixed expenses
		r.Get("/expenses/fixed", listFixedExpensesHandler(ledger, logger))
		r.Post("/expenses/fixed", createFixedExpenseHandler(ledger, logger))
		r.Put("/expenses/fixed/{expenseId}", updateFixedExpenseHandler(ledger, logger))
		r.Post("/expenses/fixed/{expenseId}/pay", payFixedExpenseHandler(ledger, logger))

		// Variable expenses
		r.Get("/expenses/variable", listVariableExpensesHandler(ledger, logger))
		r.Post("/expenses/variable", logVariableExpenseHandler(ledger, logger))

		// Bonus events
		r.Get("/bonuses", listBonusesHandler(ledger, logger))
		r.Post("/bonuses", createBonusHandler(ledger, logger))
		r.Post("/bonuses/{bonusId}/received", markBonusReceivedHandler(ledger, logger))

		// Purchase recommendations
		r.Post("/recommendations", recommendHandler(rec, logger))
		r.Get("/recommendations", listRecommendationsHandler(rec, logger))
		r.Get("/recommendations/{recId}", getRecommendationHandler(rec, logger))
		r.Post("/recommendations/{recId}/execute", executeRecommendationHandler(rec, logger))
		r.Post("/recommendations/{recId}/cancel", cancelRecommendationHandler(rec, logger))

		// Savings
		r.Get("/savings/available", savingsAvailableHandler(sav, logger))
		r.Post("/savings/transfer", savingsTransferHandler(sav, logger))
		r.Put("/savings/goal", savingsGoalHandler(sav, logger))

		// Engine metrics
		r.Get("/metrics/engine", engineMetricsHandler(metrics))
	})

	return r
}

// requestMetrics counts every request as success or error by status class.
func requestMetrics(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if ww.Status() >= http.StatusInternalServerError {
				metrics.IncrRequest("error")
			} else {
				metrics.IncrRequest("success")
			}
		})
	}
}

// ============================================================
// Health & metrics
// ============================================================

func healthzHandler(ledger *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "healthy"
		code := http.StatusOK
		if err := ledger.Ping(r.Context()); err != nil {
			logger.Warn("store health check failed", zap.Error(err))
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, map[string]any{
			"status":     status,
			"checked_at": time.Now().Format(time.RFC3339),
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func engineMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetEngineSnapshot())
	}
}
