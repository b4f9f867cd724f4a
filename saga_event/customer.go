package saga_event

// CustomerModel is the snapshot Order's local customer replica stores,
// published on the `customer` topic (spec.md §6). The Customer service has
// no saga role (spec.md §1) — this is the only message it ever produces.
type CustomerModel struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
