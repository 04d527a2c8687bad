package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ensure Metrics implements Recorder interface at compile time
var _ Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the authorization server
type Metrics struct {
	// Authorization code flow
	AuthorizationRequestsTotal *prometheus.CounterVec
	CodesIssuedTotal           *prometheus.CounterVec
	CodeExchangesTotal         *prometheus.CounterVec

	// Tokens
	TokensIssuedTotal       *prometheus.CounterVec
	TokensRefreshedTotal    *prometheus.CounterVec
	TokensRevokedTotal      *prometheus.CounterVec
	TokenValidationTotal    *prometheus.CounterVec
	TokenValidationDuration prometheus.Histogram

	// Accounts
	LoginTotal        *prometheus.CounterVec
	RegistrationTotal *prometheus.CounterVec
	LogoutTotal       prometheus.Counter

	// Abuse controls
	RateLimitBlocksTotal *prometheus.CounterVec

	// HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init returns the process-wide Recorder. With enabled=false it returns
// a noop recorder; otherwise Prometheus metrics registered exactly once.
func Init(enabled bool) Recorder {
	if !enabled {
		return NewNoopRecorder()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

func initMetrics() *Metrics {
	return &Metrics{
		AuthorizationRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_authorization_requests_total",
				Help: "Total number of authorization requests",
			},
			[]string{"result"}, // valid, invalid_request, unauthorized_client, invalid_scope
		),
		CodesIssuedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_authorization_codes_issued_total",
				Help: "Total number of authorization codes issued",
			},
			[]string{"result"}, // success, error
		),
		CodeExchangesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_code_exchanges_total",
				Help: "Total number of authorization code exchanges",
			},
			[]string{"result"}, // success, invalid_grant, invalid_client
		),

		TokensIssuedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_tokens_issued_total",
				Help: "Total number of tokens issued",
			},
			[]string{"token_type", "grant_type"},
		),
		TokensRefreshedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_tokens_refreshed_total",
				Help: "Total number of token refresh attempts",
			},
			[]string{"result"}, // success, error
		),
		TokensRevokedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_tokens_revoked_total",
				Help: "Total number of tokens revoked",
			},
			[]string{"reason"}, // user_request, rotation, logout
		),
		TokenValidationTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_token_validation_total",
				Help: "Total number of token validations",
			},
			[]string{"result"}, // valid, invalid, expired
		),
		TokenValidationDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "oauth_token_validation_duration_seconds",
				Help:    "Time taken to validate tokens",
				Buckets: prometheus.DefBuckets,
			},
		),

		LoginTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_login_total",
				Help: "Total number of login attempts",
			},
			[]string{"provider", "result"},
		),
		RegistrationTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_registration_total",
				Help: "Total number of registration attempts",
			},
			[]string{"provider", "result"},
		),
		LogoutTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "auth_logout_total",
				Help: "Total number of logouts",
			},
		),

		RateLimitBlocksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_limit_blocks_total",
				Help: "Total number of requests blocked by the rate limiter",
			},
			[]string{"endpoint"},
		),

		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{0.001, 0.005, 0.010, 0.025, 0.050, 0.100, 0.250, 0.500, 1.0, 2.5, 5.0},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being served",
			},
		),
	}
}

const (
	resultSuccess = "success"
	resultError   = "error"
	resultFailure = "failure"
)

func (m *Metrics) RecordAuthorizationRequest(result string) {
	m.AuthorizationRequestsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordCodeIssued(success bool) {
	result := resultSuccess
	if !success {
		result = resultError
	}
	m.CodesIssuedTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordCodeExchange(result string) {
	m.CodeExchangesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordTokenIssued(tokenType, grantType string) {
	m.TokensIssuedTotal.WithLabelValues(tokenType, grantType).Inc()
}

func (m *Metrics) RecordTokenRefresh(success bool) {
	result := resultSuccess
	if !success {
		result = resultError
	}
	m.TokensRefreshedTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordTokenRevoked(reason string) {
	m.TokensRevokedTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordTokenValidation(result string, duration time.Duration) {
	m.TokenValidationTotal.WithLabelValues(result).Inc()
	m.TokenValidationDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordLogin(provider string, success bool) {
	result := resultSuccess
	if !success {
		result = resultFailure
	}
	m.LoginTotal.WithLabelValues(provider, result).Inc()
}

func (m *Metrics) RecordRegistration(provider string, success bool) {
	result := resultSuccess
	if !success {
		result = resultFailure
	}
	m.RegistrationTotal.WithLabelValues(provider, result).Inc()
}

func (m *Metrics) RecordLogout() {
	m.LogoutTotal.Inc()
}

func (m *Metrics) RecordRateLimitBlock(endpoint string) {
	m.RateLimitBlocksTotal.WithLabelValues(endpoint).Inc()
}
