package arbitration

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimerKind tags what a scheduled callback is supposed to force. Every fire
// is dispatched through the single Service.HandleTimer entry point and
// no-ops when the case has already moved past the step the timer guarded.
type TimerKind string

const (
	// TimerRespAppeal guards the respondent's window to accept a fresh
	// complaint. Fires while the case is still init force a defaulted
	// judgment against the respondent.
	TimerRespAppeal TimerKind = "resp_appeal"

	// TimerRespReappeal guards the opposite side's window to re-respond to
	// a reappeal. Fires open the next round without a responder.
	TimerRespReappeal TimerKind = "resp_reappeal"

	// TimerRespJuror guards invited jurors' confirmation window. Fires
	// re-run selection for the unfilled seats.
	TimerRespJuror TimerKind = "resp_juror"

	// TimerUploadResult guards the voting window. Fires tally with the
	// votes that arrived.
	TimerUploadResult TimerKind = "upload_result"

	// TimerReappealWindow guards the post-tally reappeal window on
	// multi-round cases. Fires finalize the last result and settle.
	TimerReappealWindow TimerKind = "reappeal_window"
)

// TimerFire is the payload carried by a scheduled callback.
type TimerFire struct {
	CaseID string    `json:"case_id"`
	Kind   TimerKind `json:"kind"`
}

// Key identifies the schedule slot. Rearming a kind for a case replaces the
// pending callback, so a real response and its timeout are mutually
// exclusive.
func (f TimerFire) Key() string {
	return "case/" + f.CaseID + "/" + string(f.Kind)
}

func (f TimerFire) Payload() []byte {
	b, _ := json.Marshal(f)
	return b
}

func ParseTimerFire(payload []byte) (TimerFire, error) {
	var f TimerFire
	if err := json.Unmarshal(payload, &f); err != nil {
		return TimerFire{}, fmt.Errorf("decode timer payload: %w", err)
	}
	if f.CaseID == "" || f.Kind == "" {
		return TimerFire{}, fmt.Errorf("timer payload missing case_id or kind")
	}
	return f, nil
}

// Scheduler is the scheduled callback primitive the engine waits on.
type Scheduler interface {
	Schedule(key string, at time.Time, payload []byte)
	Cancel(key string)
}
