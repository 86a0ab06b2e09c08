package arbitration

import (
	"context"
	"encoding/json"
	"time"
)

// EventStore is the append-only case history, written inside the same
// transaction as the transition it records.
type EventStore interface {
	CreateCaseEvent(ctx context.Context, event NewCaseEvent) (*CaseEvent, error)
}

// EventReader serves case history queries outside a transaction.
type EventReader interface {
	GetCaseEvents(ctx context.Context, query CaseEventQuery) (CaseEventPage, error)
}

type CaseEvent struct {
	EventID string `json:"event_id"`
	NewCaseEvent
}

type NewCaseEvent struct {
	CaseID    string          `json:"case_id"`
	Kind      CaseEventKind   `json:"kind"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

type CaseEventKind string

const (
	CaseEventComplaintFiled    CaseEventKind = "complaint_filed"
	CaseEventRespondentJoined  CaseEventKind = "respondent_joined"
	CaseEventJurorsInvited     CaseEventKind = "jurors_invited"
	CaseEventJurorConfirmed    CaseEventKind = "juror_confirmed"
	CaseEventEvidenceUploaded  CaseEventKind = "evidence_uploaded"
	CaseEventVoteUploaded      CaseEventKind = "vote_uploaded"
	CaseEventRoundTallied      CaseEventKind = "round_tallied"
	CaseEventCrowdEscalated    CaseEventKind = "crowd_escalated"
	CaseEventReappealFiled     CaseEventKind = "reappeal_filed"
	CaseEventTimerFired        CaseEventKind = "timer_fired"
	CaseEventDefaultedJudgment CaseEventKind = "defaulted_judgment"
	CaseEventSettled           CaseEventKind = "settled"
)

type CaseEventPage struct {
	Items      []CaseEvent `json:"items"`
	NextCursor string      `json:"next_cursor"`
	HasMore    bool        `json:"has_more"`
}

type CaseEventQuery struct {
	CaseIDs []string        `json:"case_ids" form:"case_ids,omitempty"`
	Kinds   []CaseEventKind `json:"kinds" form:"kinds,omitempty"`

	TimeFrom *time.Time `json:"time_from,omitempty" form:"time_from,omitempty"`
	TimeTo   *time.Time `json:"time_to,omitempty" form:"time_to,omitempty"`

	Limit   int    `json:"limit" form:"limit"`
	Cursor  string `json:"cursor" form:"cursor"`
	SortAsc bool   `json:"sort_asc" form:"sort_asc"`
}

// EventPublisher mirrors committed case events to downstream consumers.
// Publishing happens after commit; a lost publish is acceptable, a phantom
// one is not.
type EventPublisher interface {
	PublishCaseEvents(ctx context.Context, events []CaseEvent) error
}
