package domain

import (
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditChildCreate  AuditAction = "child.create"
	AuditCheckin      AuditAction = "ledger.checkin"
	AuditDeposit      AuditAction = "ledger.deposit"
	AuditWithdraw     AuditAction = "ledger.withdraw"
	AuditVendorReturn AuditAction = "tokens.vendor_return"
	AuditTokenDeposit AuditAction = "tokens.deposit"
	AuditRoleChange   AuditAction = "user.role_change"
	AuditQRGenerate   AuditAction = "qr.generate"
	AuditQRAssign     AuditAction = "qr.assign"
	AuditQRUnassign   AuditAction = "qr.unassign"
	AuditQRPrint      AuditAction = "qr.print"
)

type AuditLog struct {
	ID         uuid.UUID      `json:"id"`
	ActorID    *uuid.UUID     `json:"actorId,omitempty"`
	Action     AuditAction    `json:"action"`
	EntityType string         `json:"entityType"`
	EntityID   string         `json:"entityId"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// NewAudit builds an entry for the caller; an unregistered caller is
// recorded without an actor id.
func NewAudit(caller Caller, action AuditAction, entityType, entityID string, details map[string]any) AuditLog {
	entry := AuditLog{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	}
	if caller.Registered() {
		id := caller.UserID
		entry.ActorID = &id
	}

	return entry
}
