// Package payment implements the Payment step service (spec.md §4.4): it
// consumes payment-request, debits or credits a customer's credit history,
// and publishes the outcome via its own response outbox.
package payment

import (
	"github.com/sergen116/food-ordering-system/pkg/apperr"
	"github.com/sergen116/food-ordering-system/pkg/money"
)

// CreditHistory is the Payment service's aggregate (spec.md §4.4): the
// running total of credits and debits ever applied for one customer.
// Available balance is always TotalCreditAmount - TotalDebitAmount, and the
// invariant total credits >= total debits must hold after every mutation.
type CreditHistory struct {
	CustomerID        string      `db:"customer_id"`
	TotalCreditAmount money.Money `db:"total_credit_amount"`
	TotalDebitAmount  money.Money `db:"total_debit_amount"`
	Version           int         `db:"version"`
}

// NewCreditHistory creates a zero-balance row for a customer that has never
// been seen before. spec.md §4.4 says "load or create the customer's
// credit history" without defining where initial credit comes from (out of
// scope — customer credit limits are not part of this system per spec.md
// §1's Non-goals); a freshly created history starts at zero, so any real
// debit against it fails for insufficient funds exactly as a genuinely
// missing customer should (see DESIGN.md's resolution of this point).
func NewCreditHistory(customerID string) CreditHistory {
	return CreditHistory{
		CustomerID:        customerID,
		TotalCreditAmount: money.Zero,
		TotalDebitAmount:  money.Zero,
	}
}

// Debit applies a forward payment (spec.md §4.4 "apply debit (for PAY)").
// It fails if doing so would push total debits above total credits.
func (c *CreditHistory) Debit(amount money.Money) error {
	newDebit := c.TotalDebitAmount.Add(amount)
	if !c.TotalCreditAmount.GreaterThanOrEqual(newDebit) {
		return apperr.Domainf("customer %s has no enough credit", c.CustomerID)
	}
	c.TotalDebitAmount = newDebit
	return nil
}

// Credit applies a compensating refund (spec.md §4.4 "apply credit (for
// CANCEL)"). A credit can never violate the invariant, so it never fails.
func (c *CreditHistory) Credit(amount money.Money) {
	c.TotalCreditAmount = c.TotalCreditAmount.Add(amount)
}

// Balance reports the customer's currently available credit.
func (c *CreditHistory) Balance() money.Money {
	return c.TotalCreditAmount.Sub(c.TotalDebitAmount)
}
