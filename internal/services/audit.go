package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/elixpo/accounts/internal/models"
	"github.com/elixpo/accounts/internal/store"
	"github.com/elixpo/accounts/internal/util"

	"github.com/google/uuid"
)

// AuditEntry represents the data needed to create an audit log entry
type AuditEntry struct {
	EventType    models.EventType
	Status       models.EventStatus
	UserID       string
	Provider     string
	IPAddress    string
	UserAgent    string
	Details      models.AuditDetails
	ErrorMessage string
}

// AuditService records security-relevant events. Writes are buffered and
// batched on a background goroutine; recording never blocks or fails the
// primary operation.
type AuditService struct {
	store      *store.Store
	enabled    bool
	bufferSize int

	logChan chan *models.AuditLog

	batchBuffer []*models.AuditLog
	batchMutex  sync.Mutex
	batchTicker *time.Ticker

	wg         sync.WaitGroup
	shutdownCh chan struct{}
}

// NewAuditService creates a new audit service
func NewAuditService(s *store.Store, enabled bool, bufferSize int) *AuditService {
	if bufferSize <= 0 {
		bufferSize = 1000
	}

	service := &AuditService{
		store:       s,
		enabled:     enabled,
		bufferSize:  bufferSize,
		logChan:     make(chan *models.AuditLog, bufferSize),
		batchBuffer: make([]*models.AuditLog, 0, 100),
		batchTicker: time.NewTicker(1 * time.Second),
		shutdownCh:  make(chan struct{}),
	}

	if enabled {
		service.wg.Add(1)
		go service.worker()
		log.Printf("[Audit] service started with buffer size %d", bufferSize)
	} else {
		log.Println("[Audit] service is disabled")
	}

	return service
}

func (s *AuditService) worker() {
	defer s.wg.Done()

	for {
		select {
		case entry := <-s.logChan:
			s.addToBatch(entry)

		case <-s.batchTicker.C:
			s.flushBatch()

		case <-s.shutdownCh:
			// Drain anything queued, then flush
			for {
				select {
				case entry := <-s.logChan:
					s.addToBatch(entry)
					continue
				default:
				}
				break
			}
			s.flushBatch()
			return
		}
	}
}

func (s *AuditService) addToBatch(entry *models.AuditLog) {
	s.batchMutex.Lock()
	defer s.batchMutex.Unlock()

	s.batchBuffer = append(s.batchBuffer, entry)

	// Flush if batch is full (100 entries)
	if len(s.batchBuffer) >= 100 {
		s.flushBatchUnsafe()
	}
}

func (s *AuditService) flushBatch() {
	s.batchMutex.Lock()
	defer s.batchMutex.Unlock()
	s.flushBatchUnsafe()
}

// flushBatchUnsafe flushes the batch buffer; caller must hold the lock.
func (s *AuditService) flushBatchUnsafe() {
	if len(s.batchBuffer) == 0 {
		return
	}

	toWrite := make([]*models.AuditLog, len(s.batchBuffer))
	copy(toWrite, s.batchBuffer)
	s.batchBuffer = s.batchBuffer[:0]

	if err := s.store.CreateAuditLogs(toWrite); err != nil {
		log.Printf("[Audit] failed to write batch: %v", err)
	}
}

// Log records an audit entry asynchronously. If the buffer is full the
// event is dropped with a warning rather than blocking the caller.
func (s *AuditService) Log(ctx context.Context, entry AuditEntry) {
	if !s.enabled {
		return
	}

	record := s.buildRecord(ctx, entry)

	select {
	case s.logChan <- record:
	default:
		log.Printf("[Audit] buffer full, dropping event: %s", entry.EventType)
	}
}

// LogSync records an audit entry synchronously (for critical events)
func (s *AuditService) LogSync(ctx context.Context, entry AuditEntry) error {
	if !s.enabled {
		return nil
	}
	return s.store.CreateAuditLog(s.buildRecord(ctx, entry))
}

func (s *AuditService) buildRecord(ctx context.Context, entry AuditEntry) *models.AuditLog {
	if entry.IPAddress == "" {
		entry.IPAddress = util.GetIPFromContext(ctx)
	}
	if entry.Status == "" {
		entry.Status = models.StatusSuccess
	}

	return &models.AuditLog{
		ID:           uuid.New().String(),
		EventType:    entry.EventType,
		Status:       entry.Status,
		UserID:       entry.UserID,
		Provider:     entry.Provider,
		IPAddress:    entry.IPAddress,
		UserAgent:    entry.UserAgent,
		Details:      maskSensitiveDetails(entry.Details),
		ErrorMessage: entry.ErrorMessage,
		CreatedAt:    time.Now(),
	}
}

// CleanupOldLogs deletes audit logs older than the retention period
func (s *AuditService) CleanupOldLogs(retention time.Duration) error {
	return s.store.DeleteAuditLogsBefore(time.Now().Add(-retention))
}

// Shutdown flushes buffered entries and stops the worker.
func (s *AuditService) Shutdown(ctx context.Context) error {
	if !s.enabled {
		return nil
	}

	s.batchTicker.Stop()
	close(s.shutdownCh)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("[Audit] service shut down gracefully")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("audit service shutdown timeout: %w", ctx.Err())
	}
}

// maskSensitiveDetails masks credential material in audit log details
func maskSensitiveDetails(details models.AuditDetails) models.AuditDetails {
	if details == nil {
		return details
	}

	masked := make(models.AuditDetails)
	for key, value := range details {
		if isSensitiveField(key) {
			masked[key] = "***REDACTED***"
			continue
		}

		// Partial masking for codes and token identifiers
		if isPartialMaskField(key) {
			if str, ok := value.(string); ok && len(str) > 12 {
				masked[key] = str[:8] + "..." + str[len(str)-4:]
				continue
			}
		}

		masked[key] = value
	}

	return masked
}

func isSensitiveField(key string) bool {
	key = strings.ToLower(key)
	sensitiveFields := []string{
		"password",
		"client_secret",
		"access_token",
		"refresh_token",
		"secret",
		"verifier",
	}

	for _, field := range sensitiveFields {
		if strings.Contains(key, field) {
			return true
		}
	}
	return false
}

func isPartialMaskField(key string) bool {
	key = strings.ToLower(key)
	partialMaskFields := []string{
		"code",
		"token_id",
	}

	for _, field := range partialMaskFields {
		if strings.Contains(key, field) {
			return true
		}
	}
	return false
}
