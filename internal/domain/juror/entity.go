// Package juror is the registry of accounts allowed to sit on arbitration
// panels, together with their stake and voting track record.
package juror

import (
	"time"

	"arbitron/internal/domain/money"
)

type Tier string

const (
	TierProfessional Tier = "professional"
	TierAmateur      Tier = "amateur"
)

// MaliciousThreshold is the correctness rate below which a juror is barred
// from future panels.
const MaliciousThreshold = 0.5

type Juror struct {
	Account         string      `json:"account"`
	PubKey          string      `json:"pub_key"`
	Tier            Tier        `json:"tier"`
	Stake           money.Money `json:"stake"`
	Income          money.Money `json:"income"`
	CorrectnessRate float64     `json:"correctness_rate"`
	IsMalicious     bool        `json:"is_malicious"`
	Profile         string      `json:"profile"`
	RegisteredAt    time.Time   `json:"registered_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// Registration is the input for joining the registry.
type Registration struct {
	Account string      `json:"account"`
	PubKey  string      `json:"pub_key"`
	Tier    Tier        `json:"tier"`
	Stake   money.Money `json:"stake"`
	Profile string      `json:"profile"`
}

// CaseScore records how one juror performed in one settled case: how many
// votes they cast across its rounds and how many matched the final result.
// A selected juror who never voted scores zero.
type CaseScore struct {
	Account      string
	VotesCast    int
	VotesCorrect int
}

// Rate is the juror's correctness over this one case.
func (s CaseScore) Rate() float64 {
	if s.VotesCast == 0 {
		return 0
	}
	return float64(s.VotesCorrect) / float64(s.VotesCast)
}
