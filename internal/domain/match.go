package domain

import "time"

// MatchStatus represents the lifecycle state of a match.
type MatchStatus string

const (
	MatchStatusProposed MatchStatus = "proposed"
	MatchStatusAccepted MatchStatus = "accepted"
	MatchStatusRejected MatchStatus = "rejected"
	MatchStatusExpired  MatchStatus = "expired"
)

// Match is a proposed pairing between one offer and one request.
// Lower scores are better.
type Match struct {
	ID        string
	OfferID   string
	RequestID string
	Score     float64
	Status    MatchStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Terminal reports whether the match can no longer change state.
func (m *Match) Terminal() bool {
	return m.Status != MatchStatusProposed
}

// MatchDetail is a match populated with its offer and request for presentation.
type MatchDetail struct {
	Match   *Match
	Offer   *Offer
	Request *Request
}
