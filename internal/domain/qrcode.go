package domain

import (
	"time"

	"github.com/google/uuid"
)

// QRCodeAlphabet excludes glyphs that are easy to misread on a printed card
// (0/O, 1/I/L).
const QRCodeAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

// Code length bounds; the qr_codes.code column is varchar(16).
const (
	MinQRCodeLength = 4
	MaxQRCodeLength = 16
)

type QRCode struct {
	ID        uuid.UUID  `json:"id"`
	Code      string     `json:"code"`
	ChildID   *uuid.UUID `json:"childId,omitempty"`
	ChildName string     `json:"childName,omitempty"`
	Printed   bool       `json:"printed"`
	PrintedAt *time.Time `json:"printedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (q QRCode) Assigned() bool {
	return q.ChildID != nil
}
