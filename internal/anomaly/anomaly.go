// Package anomaly flags donations that are unusually large compared with the
// donor's earlier donations.
package anomaly

import (
	"context"
	"fmt"
	"math/big"

	"github.com/goran-ethernal/DonationIndexor/pkg/config"
	"github.com/goran-ethernal/DonationIndexor/pkg/donation"
	"github.com/goran-ethernal/DonationIndexor/pkg/store"
)

const (
	ReasonLargeDonation = "donation is unusually large compared to donor history"
	ReasonNone          = "no anomaly detected"
)

// Verdict is the outcome of checking one donation.
type Verdict struct {
	Suspicious bool
	Reason     string
}

// Checker compares stored donations with the donor's history.
type Checker struct {
	store   store.Gateway
	factor  uint64
	history int
}

// NewChecker returns nil when cfg is nil or disabled.
func NewChecker(s store.Gateway, cfg *config.AnomalyConfig) *Checker {
	if !cfg.IsEnabled() {
		return nil
	}
	cfg.ApplyDefaults()

	return &Checker{
		store:   s,
		factor:  cfg.Factor,
		history: cfg.HistorySize,
	}
}

// IsSuspicious reports whether amount exceeds factor times the mean of previous.
// A donor without history is never suspicious.
func IsSuspicious(amount *big.Int, previous []*big.Int, factor uint64) bool {
	if amount == nil || len(previous) == 0 {
		return false
	}

	sum := new(big.Int)
	for _, p := range previous {
		if p != nil {
			sum.Add(sum, p)
		}
	}

	// amount > factor*sum/n without losing precision to integer division
	lhs := new(big.Int).Mul(amount, big.NewInt(int64(len(previous))))
	rhs := new(big.Int).Mul(sum, new(big.Int).SetUint64(factor))

	return lhs.Cmp(rhs) > 0
}

// Check compares ev with at most the configured number of the donor's donations that
// precede it on chain. ev may already be stored; it is never part of its own history.
func (c *Checker) Check(ctx context.Context, ev *donation.Event) (Verdict, error) {
	filter := store.Filter{Donor: &ev.Donor, ToBlock: ev.BlockNumber}

	total, err := c.store.Count(ctx, filter)
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to count donor history: %w", err)
	}

	// one extra row leaves room for ev itself
	window := c.history + 1
	offset := max(int(total)-window, 0)

	rows, err := c.store.Find(ctx, filter, window, offset)
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to load donor history: %w", err)
	}

	previous := make([]*big.Int, 0, len(rows))
	for _, prior := range rows {
		if !prior.Less(ev) {
			continue
		}
		previous = append(previous, prior.Amount)
	}
	if len(previous) > c.history {
		previous = previous[len(previous)-c.history:]
	}

	if IsSuspicious(ev.Amount, previous, c.factor) {
		return Verdict{Suspicious: true, Reason: ReasonLargeDonation}, nil
	}

	return Verdict{Reason: ReasonNone}, nil
}
