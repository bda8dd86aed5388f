package service

import (
	"context"
	"encoding/json"
	"log"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

// writeAudit records an audit entry best-effort. Persistence failures are
// logged but never fail the business operation that triggered them.
// userID may be empty for device-driven or scheduled actions.
func writeAudit(ctx context.Context, auditRepo repository.AuditRepository, userID, action, entityID, entityName string, details interface{}) {
	if auditRepo == nil {
		return
	}

	entry := model.AuditLog{
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
	}

	if userID != "" {
		if uid, err := uuid.Parse(userID); err == nil {
			entry.UserID = &uid
		}
	}

	if details != nil {
		if raw, err := json.Marshal(details); err == nil {
			entry.Details = string(raw)
		}
	}

	if err := auditRepo.Log(ctx, &entry); err != nil {
		log.Printf("audit: failed to record %s for %s: %v", action, entityID, err)
	}
}
