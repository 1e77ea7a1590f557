package model

// Outcome classifies the final tally of a session.
type Outcome string

const (
	OutcomeApproved Outcome = "APPROVED"
	OutcomeRejected Outcome = "REJECTED"
	OutcomeTie      Outcome = "TIE"
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	return string(o)
}

// ClassifyOutcome maps a (yes, no) count pair to exactly one outcome.
// Equal counts, including zero/zero, are a tie.
func ClassifyOutcome(yes, no int64) Outcome {
	switch {
	case yes > no:
		return OutcomeApproved
	case no > yes:
		return OutcomeRejected
	default:
		return OutcomeTie
	}
}

// Result is the tally snapshot for an agenda item. It is derived from the
// persisted votes on demand and never stored.
type Result struct {
	AgendaItemID string  `json:"agenda_item_id"`
	Title        string  `json:"title"`
	TotalVotes   int64   `json:"total_votes"`
	Yes          int64   `json:"yes"`
	No           int64   `json:"no"`
	Outcome      Outcome `json:"outcome"`
	Closed       bool    `json:"closed"`
}
