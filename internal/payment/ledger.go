// Package payment implements the multi-tender settlement ledger used by
// the POS and the counter settlement of deferred orders, plus the
// append-only payment rows backing it.
package payment

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/PierreBultez/WendysDiner/pkg/money"
)

// Tender methods. Revolut payments are recorded by the gateway callback
// with their own tag and never pass through the counter ledger.
const (
	MethodCash = "cash"
	MethodCard = "card"
)

var (
	// ErrInvalidTender rejects a tender that is not numeric, below the
	// minimum, or larger than the remaining amount due.
	ErrInvalidTender = errors.New("invalid tender amount")
	// ErrInsufficient rejects settlement while the ledger does not yet
	// cover the total.
	ErrInsufficient = errors.New("order is not fully paid")
)

// minTender rejects zero and near-zero tender lines.
var minTender = decimal.NewFromFloat(0.10)

// Tender is one not-yet-persisted payment line in a settlement.
type Tender struct {
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

// Ledger accumulates tender lines against an order total. It is plain
// in-memory state: nothing is persisted until the settlement service
// writes the whole ledger in one transaction.
type Ledger struct {
	total   decimal.Decimal
	tenders []Tender

	// NextMethod and NextAmount are suggestions for the next tender
	// line: the amount pre-fills with what remains, and after a first
	// tender the method default flips to card, since split payments
	// are usually cash-then-card. A convenience, not a rule.
	NextMethod string
	NextAmount string
}

func NewLedger(total decimal.Decimal) *Ledger {
	return &Ledger{
		total:      money.Round(total),
		NextMethod: MethodCash,
		NextAmount: money.Format(money.Round(total)),
	}
}

func (l *Ledger) Total() decimal.Decimal {
	return l.total
}

// Remaining is the amount still due, rounded to two decimals. Tender
// validation keeps it from ever going negative.
func (l *Ledger) Remaining() decimal.Decimal {
	paid := decimal.Zero
	for _, t := range l.tenders {
		paid = paid.Add(t.Amount)
	}
	return money.Round(l.total.Sub(paid))
}

// AddTender validates and appends one tender line. The amount must be a
// valid number within (minTender, remaining].
func (l *Ledger) AddTender(method, amount string) error {
	if method != MethodCash && method != MethodCard {
		return fmt.Errorf("%w: unknown method %q", ErrInvalidTender, method)
	}
	d, ok := money.Parse(amount)
	if !ok {
		return fmt.Errorf("%w: %q is not a number", ErrInvalidTender, amount)
	}
	if d.LessThan(minTender) {
		return fmt.Errorf("%w: %s is below the minimum", ErrInvalidTender, money.Format(d))
	}
	if d.GreaterThan(l.Remaining()) {
		return fmt.Errorf("%w: %s exceeds the %s remaining", ErrInvalidTender, money.Format(d), money.Format(l.Remaining()))
	}

	l.tenders = append(l.tenders, Tender{Method: method, Amount: d})

	remaining := l.Remaining()
	if remaining.IsPositive() {
		l.NextAmount = money.Format(remaining)
	} else {
		l.NextAmount = ""
	}
	l.NextMethod = MethodCard
	return nil
}

// RemoveTender drops the tender at the given index and re-packs the
// list.
func (l *Ledger) RemoveTender(index int) error {
	if index < 0 || index >= len(l.tenders) {
		return fmt.Errorf("%w: no tender at index %d", ErrInvalidTender, index)
	}
	l.tenders = append(l.tenders[:index], l.tenders[index+1:]...)
	return nil
}

// ChangeDue computes the cash change for the received amount: what was
// handed over minus the cash tenders recorded, never negative. Card
// tenders never produce change.
func (l *Ledger) ChangeDue(cashReceived string) decimal.Decimal {
	received, ok := money.Parse(cashReceived)
	if !ok || !received.IsPositive() {
		return decimal.Zero
	}

	cashPaid := decimal.Zero
	for _, t := range l.tenders {
		if t.Method == MethodCash {
			cashPaid = cashPaid.Add(t.Amount)
		}
	}

	if received.GreaterThanOrEqual(cashPaid) {
		return money.Round(received.Sub(cashPaid))
	}
	return decimal.Zero
}

// Settled reports whether the tenders cover the total, within the
// rounding epsilon.
func (l *Ledger) Settled() bool {
	return money.Covered(l.Remaining())
}

// Tenders returns a copy of the recorded tender lines.
func (l *Ledger) Tenders() []Tender {
	out := make([]Tender, len(l.tenders))
	copy(out, l.tenders)
	return out
}
