package message

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"arbitron/internal/domain/arbitration"
	"arbitron/internal/messaging"
	"arbitron/pkg/logger"
)

// Command envelope types accepted on the case-commands topic.
const (
	TypeFileComplaint  = "case.file_complaint"
	TypeRespond        = "case.respond"
	TypeJoinAsJuror    = "case.join_juror"
	TypeUploadEvidence = "case.upload_evidence"
	TypeUploadVote     = "case.upload_vote"
	TypeReappeal       = "case.reappeal"
	TypeReRespond      = "case.rerespond"
)

// CaseMessageController handles case commands from Kafka.
type CaseMessageController struct {
	logger  *logger.Logger
	service *arbitration.Service
}

// NewCaseMessageController creates a new case message controller.
func NewCaseMessageController(l *logger.Logger, s *arbitration.Service) *CaseMessageController {
	return &CaseMessageController{
		logger:  l,
		service: s,
	}
}

// HandleMessage processes a single case command message.
func (c *CaseMessageController) HandleMessage(ctx context.Context, key, value []byte) error {
	var env messaging.Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		c.logger.Error("Failed to unmarshal envelope: key=%s error=%v", string(key), err)
		return fmt.Errorf("unmarshal envelope: %w", err)
	}

	c.logger.Debug("Processing case command: event_id=%s key=%s type=%s",
		env.EventID, env.Key, env.Type)

	err := c.dispatch(ctx, env)
	if err != nil {
		// Replayed commands land on a case that already absorbed them.
		// Consuming them again must not poison the partition.
		if errors.Is(err, arbitration.ErrDuplicateVote) ||
			errors.Is(err, arbitration.ErrStepConflict) ||
			errors.Is(err, arbitration.ErrAppealPending) {
			c.logger.Info("Duplicate case command ignored: event_id=%s type=%s error=%v",
				env.EventID, env.Type, err)
			return nil
		}

		c.logger.Error("Failed to process case command: event_id=%s type=%s error=%v",
			env.EventID, env.Type, err)
		return err
	}

	c.logger.Info("Case command processed: event_id=%s type=%s", env.EventID, env.Type)

	return nil
}

func (c *CaseMessageController) dispatch(ctx context.Context, env messaging.Envelope) error {
	switch env.Type {
	case TypeFileComplaint:
		var cmd arbitration.FileComplaintCmd
		if err := json.Unmarshal(env.Payload, &cmd); err != nil {
			return fmt.Errorf("unmarshal %s: %w", env.Type, err)
		}
		_, err := c.service.FileComplaint(ctx, cmd)
		return err

	case TypeRespond:
		var cmd arbitration.RespondCmd
		if err := json.Unmarshal(env.Payload, &cmd); err != nil {
			return fmt.Errorf("unmarshal %s: %w", env.Type, err)
		}
		return c.service.RespondToCase(ctx, cmd)

	case TypeJoinAsJuror:
		var cmd arbitration.JoinRoundCmd
		if err := json.Unmarshal(env.Payload, &cmd); err != nil {
			return fmt.Errorf("unmarshal %s: %w", env.Type, err)
		}
		return c.service.RespondAsJuror(ctx, cmd)

	case TypeUploadEvidence:
		var cmd arbitration.EvidenceCmd
		if err := json.Unmarshal(env.Payload, &cmd); err != nil {
			return fmt.Errorf("unmarshal %s: %w", env.Type, err)
		}
		return c.service.UploadEvidence(ctx, cmd)

	case TypeUploadVote:
		var cmd arbitration.VoteCmd
		if err := json.Unmarshal(env.Payload, &cmd); err != nil {
			return fmt.Errorf("unmarshal %s: %w", env.Type, err)
		}
		return c.service.UploadVote(ctx, cmd)

	case TypeReappeal:
		var cmd arbitration.ReappealCmd
		if err := json.Unmarshal(env.Payload, &cmd); err != nil {
			return fmt.Errorf("unmarshal %s: %w", env.Type, err)
		}
		return c.service.Reappeal(ctx, cmd)

	case TypeReRespond:
		var cmd arbitration.ReRespondCmd
		if err := json.Unmarshal(env.Payload, &cmd); err != nil {
			return fmt.Errorf("unmarshal %s: %w", env.Type, err)
		}
		return c.service.ReRespond(ctx, cmd)

	default:
		c.logger.Warn("Unknown case command type skipped: event_id=%s type=%s", env.EventID, env.Type)
		return nil
	}
}
