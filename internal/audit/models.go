package audit

import "time"

// Event is emitted from the bank service to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	UserID    string
	Action    Action
	// Subject is the resource acted on: an account number or transaction id.
	Subject   string
	Decision  string
	Reason    string
	RequestID string
}

type Action string

const (
	ActionUserCreated         Action = "user_created"
	ActionUserUpdated         Action = "user_updated"
	ActionUserDeleted         Action = "user_deleted"
	ActionAccountCreated      Action = "account_created"
	ActionAccountUpdated      Action = "account_updated"
	ActionAccountDeleted      Action = "account_deleted"
	ActionTransactionPosted   Action = "transaction_posted"
	ActionTransactionRejected Action = "transaction_rejected"
)

const (
	DecisionAllowed = "allowed"
	DecisionDenied  = "denied"
)
