package constants

// NATS Subjects
const (
	// Billing events, one subject per user: billing.user.{user_id}
	SubjectUserEventPrefix = "billing.user"
	SubjectUserEventAll    = "billing.user.*"

	// Domain events for downstream consumers
	SubjectTransactionCompleted = "billing.transaction.completed"
)
