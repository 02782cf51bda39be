package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/jpolanco/cardwise/internal/domain"
	"github.com/jpolanco/cardwise/internal/engine"
	"github.com/jpolanco/cardwise/internal/infra/observability"
	"github.com/jpolanco/cardwise/internal/port"
)

var recTracer = otel.Tracer("service/recommendation")

// RecommendationService scores purchases against the ledger and manages
// the recommendation lifecycle.
type RecommendationService struct {
	store   port.LedgerStore
	ledger  *LedgerService
	scorer  *engine.Scorer
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewRecommendationService creates a new recommendation service.
func NewRecommendationService(store port.LedgerStore, ledger *LedgerService, scorer *engine.Scorer, metrics *observability.Metrics, logger *zap.Logger) *RecommendationService {
	return &RecommendationService{store: store, ledger: ledger, scorer: scorer, metrics: metrics, logger: logger}
}

// Recommend scores every active card for the purchase, attaches the
// affordability verdict (and, for deferred purchases, the installment
// schedule against the best card) and persists the result as a pending
// recommendation unless the caller opts out of saving.
func (s *RecommendationService) Recommend(ctx context.Context, req *domain.RecommendRequest) (*domain.PurchaseRecommendation, error) {
	ctx, span := recTracer.Start(ctx, "RecommendationService.Recommend")
	defer span.End()
	span.SetAttributes(attribute.Float64("purchase.amount", req.Amount))

	if req.Amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}
	purchaseDate, err := parseDateOrToday(req.PurchaseDate, "purchase_date")
	if err != nil {
		return nil, err
	}
	frequency := req.PaymentFrequency
	if req.IsDeferred {
		if req.NumPayments <= 0 {
			return nil, &domain.ErrValidation{Field: "num_payments", Message: "must be positive for deferred purchases"}
		}
		if frequency == "" {
			frequency = domain.FrequencyMonthly
		}
		if frequency != domain.FrequencyWeekly && frequency != domain.FrequencyBiweekly && frequency != domain.FrequencyMonthly {
			return nil, &domain.ErrValidation{Field: "payment_frequency", Message: "must be weekly, biweekly or monthly"}
		}
	}

	snap, err := s.ledger.LoadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	active := snap.ActiveCards()
	if len(active) == 0 {
		return nil, &domain.ErrNotConfigured{Resource: "credit cards"}
	}

	start := time.Now()
	ranking, err := s.scorer.Rank(snap, req.Amount, purchaseDate)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordRequestDuration("recommend", time.Since(start))
	s.metrics.AddCardsScored(len(ranking))

	firstPayment := req.Amount
	if req.IsDeferred {
		firstPayment = req.Amount / float64(req.NumPayments)
	}

	rec := &domain.PurchaseRecommendation{
		ID:            uuid.NewString(),
		Amount:        req.Amount,
		Description:   req.Description,
		PurchaseDate:  purchaseDate,
		Status:        domain.RecommendationPending,
		Ranking:       ranking,
		Affordability: s.scorer.Affordability(snap, firstPayment, todayUTC(), purchaseDate),
		CreatedAt:     time.Now().UTC(),
	}
	if req.IsDeferred {
		for _, c := range active {
			if c.ID == ranking[0].CardID {
				rec.Plan = engine.PaymentSchedule(c, purchaseDate, req.Amount, req.NumPayments, frequency)
				break
			}
		}
	}

	if req.Save == nil || *req.Save {
		if err := s.store.SaveRecommendation(ctx, rec); err != nil {
			return nil, err
		}
	}
	s.metrics.IncrRecommendation("created")

	best := rec.Best()
	s.logger.Info("recommendation created",
		zap.String("recommendation_id", rec.ID),
		zap.Float64("amount", rec.Amount),
		zap.String("best_card", best.CardName),
		zap.Float64("best_score", best.Total),
		zap.Bool("can_afford_now", rec.Affordability.CanAffordNow),
		zap.String("liquidity", rec.Affordability.LiquidityStatus),
	)
	return rec, nil
}

// Get returns one recommendation.
func (s *RecommendationService) Get(ctx context.Context, recID string) (*domain.PurchaseRecommendation, error) {
	ctx, span := recTracer.Start(ctx, "RecommendationService.Get")
	defer span.End()
	span.SetAttributes(attribute.String("recommendation.id", recID))

	return s.store.GetRecommendation(ctx, recID)
}

// List returns recommendations, optionally filtered by status.
func (s *RecommendationService) List(ctx context.Context, status string, limit int) ([]domain.PurchaseRecommendation, error) {
	ctx, span := recTracer.Start(ctx, "RecommendationService.List")
	defer span.End()

	if status != "" && status != domain.RecommendationPending &&
		status != domain.RecommendationExecuted && status != domain.RecommendationCancelled {
		return nil, &domain.ErrValidation{Field: "status", Message: "must be pending, executed or cancelled"}
	}
	return s.store.ListRecommendations(ctx, status, limit)
}

// Execute charges a pending recommendation to a card: the top-ranked one
// by default, or any ranked card the caller picks instead.
func (s *RecommendationService) Execute(ctx context.Context, recID string, req *domain.ExecuteRecommendationRequest) (*domain.ExecuteRecommendationResponse, error) {
	ctx, span := recTracer.Start(ctx, "RecommendationService.Execute")
	defer span.End()
	span.SetAttributes(attribute.String("recommendation.id", recID))

	rec, err := s.store.GetRecommendation(ctx, recID)
	if err != nil {
		return nil, err
	}

	cardID := req.CardID
	if cardID == "" {
		best := rec.Best()
		if best == nil {
			return nil, &domain.ErrConflict{Message: "recommendation has no ranked cards"}
		}
		cardID = best.CardID
	} else {
		found := false
		for _, rc := range rec.Ranking {
			if rc.CardID == cardID {
				found = true
				break
			}
		}
		if !found {
			return nil, &domain.ErrValidation{Field: "card_id", Message: "is not part of this recommendation's ranking"}
		}
	}

	executed, card, err := s.store.ExecuteRecommendation(ctx, recID, cardID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	s.ledger.invalidate()
	s.metrics.IncrRecommendation("executed")

	s.logger.Info("recommendation executed",
		zap.String("recommendation_id", recID),
		zap.String("card_id", cardID),
		zap.Float64("amount", executed.Amount),
	)
	return &domain.ExecuteRecommendationResponse{
		Recommendation: executed,
		CardID:         cardID,
		NewCardBalance: card.CurrentBalance,
	}, nil
}

// Cancel discards a pending recommendation.
func (s *RecommendationService) Cancel(ctx context.Context, recID string) (*domain.PurchaseRecommendation, error) {
	ctx, span := recTracer.Start(ctx, "RecommendationService.Cancel")
	defer span.End()
	span.SetAttributes(attribute.String("recommendation.id", recID))

	rec, err := s.store.CancelRecommendation(ctx, recID)
	if err != nil {
		return nil, err
	}
	s.metrics.IncrRecommendation("cancelled")
	return rec, nil
}
