package metrics

import "time"

// NoopRecorder discards every observation. Zero overhead when metrics
// are disabled and the default for tests.
type NoopRecorder struct{}

var _ Recorder = (*NoopRecorder)(nil)

func NewNoopRecorder() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) RecordAuthorizationRequest(result string)                        {}
func (n *NoopRecorder) RecordCodeIssued(success bool)                                   {}
func (n *NoopRecorder) RecordCodeExchange(result string)                                {}
func (n *NoopRecorder) RecordTokenIssued(tokenType, grantType string)                   {}
func (n *NoopRecorder) RecordTokenRefresh(success bool)                                 {}
func (n *NoopRecorder) RecordTokenRevoked(reason string)                                {}
func (n *NoopRecorder) RecordTokenValidation(result string, duration time.Duration)     {}
func (n *NoopRecorder) RecordLogin(provider string, success bool)                       {}
func (n *NoopRecorder) RecordRegistration(provider string, success bool)                {}
func (n *NoopRecorder) RecordLogout()                                                   {}
func (n *NoopRecorder) RecordRateLimitBlock(endpoint string)                            {}
