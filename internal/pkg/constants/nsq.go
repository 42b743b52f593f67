package constants

// NSQ topics
const (
	TopicUserEvents = "billing_user_events"

	// Channel suffix that makes nsqd drop the channel once its last consumer leaves
	EphemeralChannelSuffix = "#ephemeral"
)

// TopicTransactionCompleted carries settled deposits for downstream consumers
const TopicTransactionCompleted = "billing_transaction_completed"
