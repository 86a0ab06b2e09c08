package kafka

import (
	"context"
	"fmt"

	"arbitron/internal/domain/arbitration"
	"arbitron/internal/messaging"
)

// CaseEventPublisher mirrors committed case events to the case-events topic.
// One envelope per event, keyed by case id so a case's history stays in
// partition order.
type CaseEventPublisher struct {
	publisher messaging.Publisher
}

var _ arbitration.EventPublisher = (*CaseEventPublisher)(nil)

func NewCaseEventPublisher(publisher messaging.Publisher) *CaseEventPublisher {
	return &CaseEventPublisher{publisher: publisher}
}

func (p *CaseEventPublisher) PublishCaseEvents(ctx context.Context, events []arbitration.CaseEvent) error {
	for _, event := range events {
		env, err := messaging.NewEnvelope(event.CaseID, string(event.Kind), event)
		if err != nil {
			return fmt.Errorf("wrap case event %s: %w", event.EventID, err)
		}
		if err := p.publisher.Publish(ctx, env); err != nil {
			return fmt.Errorf("publish case event %s: %w", event.EventID, err)
		}
	}
	return nil
}
