package services

import (
	"context"
	"testing"
	"time"

	"github.com/elixpo/accounts/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLogFlushedOnShutdown(t *testing.T) {
	s := setupTestStore(t)
	svc := NewAuditService(s, true, 10)
	ctx := context.Background()

	svc.Log(ctx, AuditEntry{
		EventType: models.EventAuthenticationSuccess,
		UserID:    "user-1",
		IPAddress: "203.0.113.7",
	})
	svc.Log(ctx, AuditEntry{
		EventType: models.EventTokenRevoked,
		IPAddress: "203.0.113.7",
	})

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, svc.Shutdown(shutdownCtx))

	var count int64
	require.NoError(t, s.DB().Model(&models.AuditLog{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestAuditLogSync(t *testing.T) {
	s := setupTestStore(t)
	svc := NewAuditService(s, true, 10)

	err := svc.LogSync(context.Background(), AuditEntry{
		EventType: models.EventClientCreated,
		IPAddress: "203.0.113.7",
	})
	require.NoError(t, err)

	var entry models.AuditLog
	require.NoError(t, s.DB().First(&entry).Error)
	assert.Equal(t, models.EventClientCreated, entry.EventType)
	assert.Equal(t, models.StatusSuccess, entry.Status)
}

func TestAuditDisabledIsNoop(t *testing.T) {
	s := setupTestStore(t)
	svc := NewAuditService(s, false, 10)
	ctx := context.Background()

	svc.Log(ctx, AuditEntry{EventType: models.EventLogout})
	require.NoError(t, svc.LogSync(ctx, AuditEntry{EventType: models.EventLogout}))
	require.NoError(t, svc.Shutdown(ctx))

	var count int64
	require.NoError(t, s.DB().Model(&models.AuditLog{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestMaskSensitiveDetails(t *testing.T) {
	details := maskSensitiveDetails(models.AuditDetails{
		"password":      "hunter2",
		"client_secret": "secret_abc",
		"code":          "code_0123456789abcdef0123456789abcdef",
		"client_id":     "cli_visible",
	})

	assert.Equal(t, "***REDACTED***", details["password"])
	assert.Equal(t, "***REDACTED***", details["client_secret"])
	assert.Equal(t, "cli_visible", details["client_id"])

	masked, ok := details["code"].(string)
	require.True(t, ok)
	assert.NotEqual(t, "code_0123456789abcdef0123456789abcdef", masked)
	assert.Contains(t, masked, "...")
}
