package domain

import (
	"time"

	"github.com/google/uuid"
)

// LedgerEvent is published after a balance mutation has been committed.
type LedgerEvent struct {
	Type         TransactionType `json:"type"`
	ChildID      uuid.UUID       `json:"childId"`
	AmountCents  int64           `json:"amountCents"`
	BalanceCents int64           `json:"balanceCents"`
	ActorID      *uuid.UUID      `json:"actorId,omitempty"`
	OccurredAt   time.Time       `json:"occurredAt"`
}
