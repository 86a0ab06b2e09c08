package arbitration

import "time"

type AppealStatus string

const (
	AppealAwaitingResponse AppealStatus = "awaiting_response"
	AppealClosed           AppealStatus = "closed"
)

// Appeal is one complaint filing. The first appeal of a fresh dispute is the
// sponsor; later filings (co-applicants, reappeals) attach to the same case.
// At most one awaiting_response appeal exists per service.
type Appeal struct {
	ID        string       `json:"appeal_id"`
	ServiceID string       `json:"service_id"`
	CaseID    string       `json:"case_id,omitempty"`
	Status    AppealStatus `json:"status"`
	IsSponsor bool         `json:"is_sponsor"`
	Applicant string       `json:"applicant"`
	Reason    string       `json:"reason"`
	FiledAt   time.Time    `json:"filed_at"`
}
