package app

import (
	"context"

	"arbitron/config"
	"arbitron/internal/controller/message"
	"arbitron/internal/domain/arbitration"
	"arbitron/internal/external/kafka"
	"arbitron/internal/messaging"
	"arbitron/pkg/logger"
)

// StartWorkers starts the Kafka consumer for case commands. It runs in a
// separate goroutine and stops when ctx is cancelled.
func StartWorkers(
	ctx context.Context,
	l *logger.Logger,
	cfg config.Config,
	arbService *arbitration.Service,
) {
	controller := message.NewCaseMessageController(l, arbService)

	consumer := kafka.NewConsumer(
		l,
		cfg.KafkaBrokers,
		cfg.KafkaCaseCommandsTopic,
		cfg.KafkaCaseCommandsConsumerGroup,
	)

	dlq := kafka.NewDLQPublisher(l, cfg.KafkaBrokers, cfg.KafkaCaseCommandsDLQTopic)

	handler := messaging.WithDLQ(
		messaging.WithRetry(controller.HandleMessage, messaging.DefaultRetryConfig()),
		dlq,
	)

	runner := messaging.NewRunner(l, []messaging.Worker{consumer}, handler)

	go func() {
		l.Info("Starting case command consumer: topic=%s group=%s",
			cfg.KafkaCaseCommandsTopic, cfg.KafkaCaseCommandsConsumerGroup)
		if err := runner.Start(ctx); err != nil {
			l.Error("Case command runner failed: error=%v", err)
		}
	}()
}
