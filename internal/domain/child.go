package domain

import (
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

var Genders = []Gender{GenderMale, GenderFemale, GenderOther}

type Child struct {
	ID           uuid.UUID  `json:"id"`
	ParentID     uuid.UUID  `json:"parentId"`
	Name         string     `json:"name"`
	Gender       Gender     `json:"gender"`
	DateOfBirth  *time.Time `json:"dateOfBirth,omitempty"`
	CheckinCount int        `json:"checkinCount"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Sibling is the trimmed view of another child of the same parent.
type Sibling struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ChildDetail is what the check-in desk sees after scanning or checking in.
type ChildDetail struct {
	Child    Child     `json:"child"`
	Siblings []Sibling `json:"siblings"`
	Balance  Balance   `json:"balance"`
	QRCode   string    `json:"qrCode,omitempty"`
}

// AgeAt returns whole years between the date of birth and t, or nil when the
// birth date is unknown.
func (c Child) AgeAt(t time.Time) *int {
	if c.DateOfBirth == nil {
		return nil
	}

	dob := *c.DateOfBirth
	age := t.Year() - dob.Year()
	if t.Month() < dob.Month() || (t.Month() == dob.Month() && t.Day() < dob.Day()) {
		age--
	}

	return &age
}

func SiblingsOf(child Child, family []Child) []Sibling {
	siblings := make([]Sibling, 0, len(family))
	for _, c := range family {
		if c.ID == child.ID {
			continue
		}
		siblings = append(siblings, Sibling{ID: c.ID, Name: c.Name})
	}

	return siblings
}
