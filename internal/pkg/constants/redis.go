package constants

// Redis key formats
const (
	// Billing
	KeyOrderLock = "billing:order:lock:%d" // Format: billing:order:lock:{order_code}

	// Auth
	KeyTokenBlacklist = "auth:blacklist:%s" // Format: auth:blacklist:{sha256(token)}

	// Rate Limiting
	KeyRateLimit = "rate:limit:%s:%s" // Format: rate:limit:{resource}:{identifier}
)
