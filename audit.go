package panelAuth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	auditEventSignInSuccess    = "sign_in_success"
	auditEventSignInFailure    = "sign_in_failure"
	auditEventSignOut          = "sign_out"
	auditEventSessionRestored  = "session_restored"
	auditEventSessionCleared   = "session_cleared"
	auditEventInitializeEmpty  = "initialize_empty"
	auditEventProfileFallback  = "profile_fallback"
	auditEventAuthEventApplied = "auth_event_applied"
)

// AuditErrorCode is the stable error vocabulary carried in audit events
// instead of raw error text.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrProfileUnavailable AuditErrorCode = "profile_unavailable"
	auditErrNotInitialized     AuditErrorCode = "not_initialized"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func auditErrorCode(err error) AuditErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthenticationFailed):
		return auditErrInvalidCredentials
	case errors.Is(err, errProfileMissing):
		return auditErrProfileUnavailable
	case errors.Is(err, ErrNotInitialized):
		return auditErrNotInitialized
	default:
		return auditErrInternal
	}
}

func (m *Manager) emitAudit(
	eventType string,
	success bool,
	userID string,
	adminID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if m == nil || m.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventID:   uuid.NewString(),
		EventType: eventType,
		UserID:    userID,
		AdminID:   adminID,
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	m.audit.Emit(context.Background(), event)
}
