package shared

const (
	UserID = "user_id"

	HeaderTempToken          = "X-Temp-Token"
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
	HeaderRetryAfter         = "Retry-After"

	ReputationClean      = "clean"
	ReputationSuspicious = "suspicious"
	ReputationMalicious  = "malicious"

	UnknownField = "Unknown"
)
