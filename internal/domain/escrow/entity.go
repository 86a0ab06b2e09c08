// Package escrow is the per-case stake ledger backing every arbitration
// fund movement.
package escrow

import (
	"time"

	"arbitron/internal/domain/money"
)

// Side labels which party of a case an escrow entry belongs to. Sides are
// fixed relative to the original complaint: the complainants are the
// applicant side, the complained-against providers the respondent side.
type Side string

const (
	SideApplicant  Side = "applicant"
	SideRespondent Side = "respondent"
)

// StakeEntry is one account's stake inside one case's escrow namespace.
// Entries are created lazily on first deposit and never read or written
// outside their case.
type StakeEntry struct {
	CaseID    string      `json:"case_id"`
	Account   string      `json:"account"`
	Side      Side        `json:"side"`
	Balance   money.Money `json:"balance"`
	Income    money.Money `json:"income"`  // cumulative dividends credited
	Claimed   money.Money `json:"claimed"` // cumulative amount withdrawn by the host ledger
	UpdatedAt time.Time   `json:"updated_at"`
}

// SidePool is the aggregate of one side of a case's escrow.
type SidePool struct {
	Accounts []string
	Total    money.Money
}
