// Package loyalty awards and deducts customer points when orders are
// finalized, and holds the reward tier table.
package loyalty

import (
	"context"
	"fmt"

	"github.com/PierreBultez/WendysDiner/internal/order"
	"github.com/PierreBultez/WendysDiner/pkg/logger"
)

// Tier is one reward level: reaching Points unlocks the Reward.
type Tier struct {
	Level  int    `json:"level"`
	Points int    `json:"points"`
	Name   string `json:"name"`
	Reward string `json:"reward"`
}

// Tiers is the diner's reward ladder.
func Tiers() []Tier {
	return []Tier{
		{Level: 1, Points: 30, Name: "Le Grignoteur", Reward: "Un petit plaisir"},
		{Level: 2, Points: 60, Name: "L'Affamé", Reward: "Un petit burger"},
		{Level: 3, Points: 90, Name: "L'Habitué", Reward: "Un menu classic"},
		{Level: 4, Points: 120, Name: "Le Gros Bonnet", Reward: "Un menu premium"},
		{Level: 5, Points: 150, Name: "La Légende", Reward: "Un menu signature"},
	}
}

// TierByLevel looks up a reward tier; ok is false for unknown levels.
func TierByLevel(level int) (Tier, bool) {
	for _, t := range Tiers() {
		if t.Level == level {
			return t, true
		}
	}
	return Tier{}, false
}

// Store mutates a customer's points balance. Both operations are plain
// counter updates.
type Store interface {
	PointsBalance(ctx context.Context, userID int64) (int, error)
	AddPoints(ctx context.Context, userID int64, points int) error
	DeductPoints(ctx context.Context, userID int64, points int) error
}

type Service struct {
	store Store
	log   *logger.Logger
}

func NewService(store Store, log *logger.Logger) *Service {
	return &Service{store: store, log: log}
}

// Apply runs accrual for a finalized order. Orders without a linked
// account earn nothing. Points earned are the whole currency units of
// the total (23.40 earns 23; the fraction is dropped, not rounded).
// Points deducted are the sum of the items' captured points_cost. The
// deduction is not clamped at zero; the balance is allowed to go
// negative, matching the captured-at-add-time cost contract.
func (s *Service) Apply(ctx context.Context, o order.Order) error {
	if o.UserID == nil {
		return nil
	}
	userID := *o.UserID

	earned := int(o.Total.IntPart())
	if earned > 0 {
		if err := s.store.AddPoints(ctx, userID, earned); err != nil {
			return fmt.Errorf("award %d points to user %d: %w", earned, userID, err)
		}
	}

	deducted := 0
	for _, item := range o.Items {
		deducted += item.PointsCost
	}
	if deducted > 0 {
		if err := s.store.DeductPoints(ctx, userID, deducted); err != nil {
			return fmt.Errorf("deduct %d points from user %d: %w", deducted, userID, err)
		}
	}

	if earned > 0 || deducted > 0 {
		s.log.Info("", "loyalty_applied",
			fmt.Sprintf("Order %d: +%d/-%d points for user %d", o.ID, earned, deducted, userID))
	}
	return nil
}
