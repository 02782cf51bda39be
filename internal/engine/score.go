package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jpolanco/cardwise/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Weights are the factor weights in points out of 100.
type Weights struct {
	Timing        float64
	Liquidity     float64
	SavingsImpact float64
	Utilization   float64
	Distribution  float64
}

// Sum returns the total weight, which a valid policy keeps at 100.
func (w Weights) Sum() float64 {
	return w.Timing + w.Liquidity + w.SavingsImpact + w.Utilization + w.Distribution
}

// Policy tunes the scoring model and the affordability thresholds.
type Policy struct {
	Weights              Weights
	TimingSaturationDays int // runway days at which timing saturates to 1.0
	FullIncomeCycles     int // paychecks before payment that earn a full timing score

	BufferRequired    float64 // cash held back before anything counts as available
	ComfortableBuffer float64 // remaining >= this after the purchase: safe
	CriticalThreshold float64 // remaining < this after the purchase: wait
}

// DefaultPolicy returns the stock scoring policy.
func DefaultPolicy() Policy {
	return Policy{
		Weights: Weights{
			Timing:        35,
			Liquidity:     25,
			SavingsImpact: 15,
			Utilization:   15,
			Distribution:  10,
		},
		TimingSaturationDays: 45,
		FullIncomeCycles:     2,
		BufferRequired:       1000,
		ComfortableBuffer:    1500,
		CriticalThreshold:    500,
	}
}

// Scorer ranks credit cards for a contemplated purchase.
type Scorer struct {
	policy Policy
}

// NewScorer builds a Scorer with the given policy.
func NewScorer(p Policy) *Scorer {
	return &Scorer{policy: p}
}

// Rank scores every active card concurrently and returns them best
// first. Ties break on lower post-purchase utilization, then card ID.
func (sc *Scorer) Rank(s *Snapshot, amount float64, purchaseDate time.Time) ([]domain.RankedCard, error) {
	cards := s.ActiveCards()
	scores := make([]domain.CardScore, len(cards))

	var g errgroup.Group
	for i, card := range cards {
		i, card := i, card
		g.Go(func() error {
			scores[i] = sc.ScoreCard(s, card, amount, purchaseDate)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Total != scores[j].Total {
			return scores[i].Total > scores[j].Total
		}
		if scores[i].UtilizationAfter != scores[j].UtilizationAfter {
			return scores[i].UtilizationAfter < scores[j].UtilizationAfter
		}
		return scores[i].CardID < scores[j].CardID
	})

	ranked := make([]domain.RankedCard, len(scores))
	for i, cs := range scores {
		ranked[i] = domain.RankedCard{Rank: i + 1, CardScore: cs}
	}
	return ranked, nil
}

// ScoreCard evaluates one card for the purchase.
func (sc *Scorer) ScoreCard(s *Snapshot, card domain.CreditCard, amount float64, purchaseDate time.Time) domain.CardScore {
	purchaseDate = midnight(purchaseDate)
	closing := NextClosingDate(card.ClosingDay, purchaseDate)
	payment := PaymentDate(closing, card.PaymentDaysAfter)
	runwayDays := int(payment.Sub(purchaseDate).Hours() / 24)
	paychecks := 0
	if s.Income.Amount > 0 {
		paychecks = PaychecksBetween(s.Income.FirstPayday, s.Income.SecondPayday, purchaseDate, payment)
	}

	statement := Obligation{CardID: card.ID, Amount: card.CurrentBalance + amount, DueOn: payment}
	projected := ProjectedBalance(s, purchaseDate, payment, []Obligation{statement})

	var reasons []string

	timing := sc.timingScore(runwayDays, paychecks)
	reasons = append(reasons, fmt.Sprintf("payment due in %d days with %d paycheck(s) before it", runwayDays, paychecks))

	liquidity := sc.liquidityScore(projected, s.Goal.MinComfortBalance)
	switch {
	case projected < 0:
		reasons = append(reasons, fmt.Sprintf("projected balance at payment is negative (%.2f)", projected))
	case projected < s.Goal.MinComfortBalance:
		reasons = append(reasons, fmt.Sprintf("projected balance %.2f dips below comfort floor %.2f", projected, s.Goal.MinComfortBalance))
	default:
		reasons = append(reasons, fmt.Sprintf("projected balance %.2f stays above comfort floor", projected))
	}

	savings := sc.savingsImpactScore(s, amount)
	if savings >= 1 {
		reasons = append(reasons, "savings goal unaffected")
	} else {
		reasons = append(reasons, "purchase crowds out part of the per-paycheck savings goal")
	}

	utilization, utilAfter := sc.utilizationScore(card, amount)
	reasons = append(reasons, fmt.Sprintf("utilization after purchase %.0f%%", utilAfter*100))

	distribution := sc.distributionScore(s, card)

	w := sc.policy.Weights
	total := timing*w.Timing + liquidity*w.Liquidity + savings*w.SavingsImpact +
		utilization*w.Utilization + distribution*w.Distribution
	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}

	return domain.CardScore{
		CardID:           card.ID,
		CardName:         card.Name,
		Total:            total,
		Timing:           factor(timing, w.Timing),
		Liquidity:        factor(liquidity, w.Liquidity),
		SavingsImpact:    factor(savings, w.SavingsImpact),
		Utilization:      factor(utilization, w.Utilization),
		Distribution:     factor(distribution, w.Distribution),
		ClosingDate:      closing,
		PaymentDate:      payment,
		DaysUntilPayment: runwayDays,
		PaychecksBefore:  paychecks,
		ProjectedBalance: projected,
		UtilizationAfter: utilAfter,
		Reasoning:        strings.Join(reasons, " | "),
	}
}

func factor(score, weight float64) domain.FactorScore {
	return domain.FactorScore{Score: score, Weight: weight, Contribution: score * weight}
}

// timingScore rewards long runways: full marks once enough paychecks
// land before the payment date, otherwise linear in runway days up to
// the saturation point.
func (sc *Scorer) timingScore(runwayDays, paychecks int) float64 {
	if paychecks >= sc.policy.FullIncomeCycles {
		return 1
	}
	if sc.policy.TimingSaturationDays <= 0 || runwayDays <= 0 {
		return 0
	}
	return clamp01(float64(runwayDays) / float64(sc.policy.TimingSaturationDays))
}

// liquidityScore measures how comfortably the projected balance at the
// payment date clears the comfort floor.
func (sc *Scorer) liquidityScore(projected, floor float64) float64 {
	if projected < 0 {
		return 0
	}
	if floor <= 0 || projected >= floor {
		return 1
	}
	return projected / floor
}

// savingsImpactScore measures how much per-paycheck room remains for the
// savings goal once half-cycle obligations and this purchase are covered.
func (sc *Scorer) savingsImpactScore(s *Snapshot, amount float64) float64 {
	if s.Goal.AmountPerPaycheck <= 0 {
		return 1
	}
	room := s.Income.Amount - s.FixedMonthly()/2 - s.Goal.VariableMonthly/2 - amount
	if room >= s.Goal.AmountPerPaycheck {
		return 1
	}
	return clamp01(room / s.Goal.AmountPerPaycheck)
}

// utilizationScore rewards low post-purchase utilization. Zero-limit
// cards score 0. Also returns the post-purchase ratio for tie-breaking.
func (sc *Scorer) utilizationScore(card domain.CreditCard, amount float64) (score, after float64) {
	if card.CreditLimit <= 0 {
		return 0, 0
	}
	after = (card.CurrentBalance + amount) / card.CreditLimit
	return clamp01(1 - after), after
}

// distributionScore nudges spend toward cards carrying less than their
// fair share of the total outstanding balance.
func (sc *Scorer) distributionScore(s *Snapshot, card domain.CreditCard) float64 {
	if card.CreditLimit <= 0 {
		return 0
	}
	active := s.ActiveCards()
	if len(active) <= 1 {
		return 0.5
	}
	var total float64
	for _, c := range active {
		total += c.CurrentBalance
	}
	share := 0.0
	if total > 0 {
		share = card.CurrentBalance / total
	}
	return clamp01(0.5 + 1/float64(len(active)) - share)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
