package model

import "time"

// Choice is a member's position on an agenda item.
type Choice string

const (
	ChoiceYes Choice = "YES"
	ChoiceNo  Choice = "NO"
)

// String returns the string representation of the choice.
func (c Choice) String() string {
	return string(c)
}

// IsValid checks whether the choice is a known value.
func (c Choice) IsValid() bool {
	switch c {
	case ChoiceYes, ChoiceNo:
		return true
	}
	return false
}

// Vote is one member's single, immutable choice on an agenda item.
// At most one vote is ever persisted per (agenda item, member) pair.
type Vote struct {
	ID           string    `json:"id"`
	AgendaItemID string    `json:"agenda_item_id"`
	MemberID     string    `json:"member_id"`
	Choice       Choice    `json:"choice"`
	CastAt       time.Time `json:"cast_at"`
}
