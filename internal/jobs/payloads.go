package jobs

// SendWelcomePayload carries the data needed to greet a new account.
// Kept minimal and ID-based; the worker does not go back to the DB for
// anything else.
type SendWelcomePayload struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}
