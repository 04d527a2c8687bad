package services

import (
	"context"
	"log"
	"time"

	"github.com/elixpo/accounts/internal/models"
	"github.com/elixpo/accounts/internal/store"
)

// RateLimitRule bounds one endpoint class: at most MaxAttempts requests
// per Window; exceeding it blocks the key for BlockDuration.
type RateLimitRule struct {
	Endpoint      string
	MaxAttempts   int
	Window        time.Duration
	BlockDuration time.Duration
}

// Endpoint classes with their limits
var (
	RuleLogin = RateLimitRule{
		Endpoint:      "login",
		MaxAttempts:   10,
		Window:        time.Minute,
		BlockDuration: 15 * time.Minute,
	}
	RuleRegister = RateLimitRule{
		Endpoint:      "register",
		MaxAttempts:   5,
		Window:        time.Minute,
		BlockDuration: 30 * time.Minute,
	}
	RulePasswordReset = RateLimitRule{
		Endpoint:      "password_reset",
		MaxAttempts:   3,
		Window:        time.Hour,
		BlockDuration: time.Hour,
	}
)

// RateLimitResult is the outcome of a limiter check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration // positive only when blocked
}

// RateLimitService is a store-backed sliding-window limiter keyed by
// (ip, endpoint). Entries expire lazily; an expired window or block is
// treated as fresh on the next request. Storage errors fail open: this
// control is non-authoritative and availability wins over strictness.
type RateLimitService struct {
	store *store.Store
	audit *AuditService
	nowFn func() time.Time
}

func NewRateLimitService(s *store.Store, audit *AuditService) *RateLimitService {
	return &RateLimitService{
		store: s,
		audit: audit,
		nowFn: time.Now,
	}
}

// Check counts one attempt against the rule and reports whether the
// request may proceed.
func (s *RateLimitService) Check(ctx context.Context, ip string, rule RateLimitRule) RateLimitResult {
	now := s.nowFn()

	entry, err := s.store.GetRateLimit(ip, rule.Endpoint)
	if err != nil {
		if !isNotFound(err) {
			log.Printf("[RateLimit] storage read failed, allowing request: %v", err)
			return RateLimitResult{Allowed: true, Remaining: rule.MaxAttempts - 1, ResetAt: now.Add(rule.Window)}
		}
		// First attempt in a window: create the entry
		entry = &models.RateLimit{
			IPAddress:     ip,
			Endpoint:      rule.Endpoint,
			AttemptCount:  1,
			WindowResetAt: now.Add(rule.Window),
		}
		if err := s.store.SaveRateLimit(entry); err != nil {
			log.Printf("[RateLimit] storage write failed, allowing request: %v", err)
		}
		return RateLimitResult{Allowed: true, Remaining: rule.MaxAttempts - 1, ResetAt: entry.WindowResetAt}
	}

	if entry.BlockActive(now) {
		return RateLimitResult{
			Allowed:    false,
			Remaining:  0,
			ResetAt:    *entry.BlockedUntil,
			RetryAfter: entry.BlockedUntil.Sub(now),
		}
	}

	// Lazy expiry: a spent window or block resets to fresh.
	if entry.WindowExpired(now) || entry.IsBlocked {
		entry.AttemptCount = 1
		entry.WindowResetAt = now.Add(rule.Window)
		entry.IsBlocked = false
		entry.BlockedUntil = nil
		if err := s.store.SaveRateLimit(entry); err != nil {
			log.Printf("[RateLimit] storage write failed, allowing request: %v", err)
		}
		return RateLimitResult{Allowed: true, Remaining: rule.MaxAttempts - 1, ResetAt: entry.WindowResetAt}
	}

	entry.AttemptCount++

	if entry.AttemptCount > rule.MaxAttempts {
		blockedUntil := now.Add(rule.BlockDuration)
		entry.IsBlocked = true
		entry.BlockedUntil = &blockedUntil
		if err := s.store.SaveRateLimit(entry); err != nil {
			log.Printf("[RateLimit] storage write failed, allowing request: %v", err)
			return RateLimitResult{Allowed: true, Remaining: 0, ResetAt: entry.WindowResetAt}
		}

		if s.audit != nil {
			s.audit.Log(ctx, AuditEntry{
				EventType: models.EventRateLimitExceeded,
				Status:    models.StatusFailure,
				IPAddress: ip,
				Details: models.AuditDetails{
					"endpoint":      rule.Endpoint,
					"blocked_until": blockedUntil.Format(time.RFC3339),
				},
			})
		}

		return RateLimitResult{
			Allowed:    false,
			Remaining:  0,
			ResetAt:    blockedUntil,
			RetryAfter: rule.BlockDuration,
		}
	}

	if err := s.store.SaveRateLimit(entry); err != nil {
		log.Printf("[RateLimit] storage write failed, allowing request: %v", err)
	}

	return RateLimitResult{
		Allowed:   true,
		Remaining: rule.MaxAttempts - entry.AttemptCount,
		ResetAt:   entry.WindowResetAt,
	}
}

// CleanupStale removes rows whose window and block have both elapsed.
func (s *RateLimitService) CleanupStale() error {
	return s.store.DeleteStaleRateLimits()
}
