package metrics

import "time"

// Recorder is the metrics surface the rest of the service records
// against. A noop implementation backs disabled deployments and tests.
type Recorder interface {
	// Authorization code flow
	RecordAuthorizationRequest(result string)
	RecordCodeIssued(success bool)
	RecordCodeExchange(result string)

	// Token operations
	RecordTokenIssued(tokenType, grantType string)
	RecordTokenRefresh(success bool)
	RecordTokenRevoked(reason string)
	RecordTokenValidation(result string, duration time.Duration)

	// Account operations
	RecordLogin(provider string, success bool)
	RecordRegistration(provider string, success bool)
	RecordLogout()

	// Abuse controls
	RecordRateLimitBlock(endpoint string)
}
