// Package customer implements the Customer service (spec.md §1, §4.6):
// accept CreateCustomer, persist the row, and enqueue a CustomerCreated
// message swept to the `customer` topic. It has no saga role — no
// compensation, no response outbox, no dedupe-on-response logic — only the
// ambient outbox mechanics every service in the system shares.
package customer

// Customer is the aggregate root. Identity fields only; the core never
// needs more than what Order's replica reads (spec.md §4.6).
type Customer struct {
	ID        string `db:"id"`
	Username  string `db:"username"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
	Version   int    `db:"version"`
}

// New constructs a Customer ready for first persistence.
func New(id, username, firstName, lastName string) *Customer {
	return &Customer{ID: id, Username: username, FirstName: firstName, LastName: lastName}
}
