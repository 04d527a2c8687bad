package models

import "time"

// RateLimit is one sliding-window counter keyed by (ip, endpoint).
// Entries reset lazily: an expired window or block is treated as fresh
// on the next request, so no background sweep is needed for correctness.
type RateLimit struct {
	IPAddress     string `gorm:"primaryKey;size:45"` // supports IPv6
	Endpoint      string `gorm:"primaryKey;size:64"`
	AttemptCount  int    `gorm:"not null;default:0"`
	WindowResetAt time.Time
	IsBlocked     bool `gorm:"not null;default:false"`
	BlockedUntil  *time.Time
	UpdatedAt     time.Time
}

func (r *RateLimit) WindowExpired(now time.Time) bool {
	return now.After(r.WindowResetAt)
}

// BlockActive reports whether a block is in force at now.
func (r *RateLimit) BlockActive(now time.Time) bool {
	return r.IsBlocked && r.BlockedUntil != nil && now.Before(*r.BlockedUntil)
}

func (RateLimit) TableName() string {
	return "rate_limits"
}
