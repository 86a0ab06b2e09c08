package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port      int    `env:"PORT" envDefault:"3000"`
	PgURL     string `env:"PG_URL" required:"true"`
	PgPoolMax int    `env:"PG_POOL_MAX" envDefault:"10"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`

	LedgerBaseURL           string        `env:"LEDGER_BASE_URL" required:"true"`
	LedgerTransferPath      string        `env:"LEDGER_TRANSFER_PATH" envDefault:"/v1/transfers"`
	HTTPLedgerClientTimeout time.Duration `env:"HTTP_LEDGER_CLIENT_TIMEOUT" envDefault:"10s"`

	// Arbitration economics
	Currency        string `env:"ARBITRATION_CURRENCY" envDefault:"UTK"`
	TreasuryAccount string `env:"TREASURY_ACCOUNT" envDefault:"arb.escrow"`
	NotifyAmount    int64  `env:"NOTIFY_AMOUNT" envDefault:"1"`
	JurorMinStake   int64  `env:"JUROR_MIN_STAKE" envDefault:"100"`

	// Step deadlines
	RespondTimeout      time.Duration `env:"RESPOND_TIMEOUT" envDefault:"72h"`
	JurorRespondTimeout time.Duration `env:"JUROR_RESPOND_TIMEOUT" envDefault:"24h"`
	UploadResultTimeout time.Duration `env:"UPLOAD_RESULT_TIMEOUT" envDefault:"72h"`
	ReappealWindow      time.Duration `env:"REAPPEAL_WINDOW" envDefault:"48h"`

	OpensearchUrls            []string `env:"OPENSEARCH_URLS" envSeparator:","`
	OpensearchIndexCaseEvents string   `env:"OPENSEARCH_INDEX_CASE_EVENTS" envDefault:"arbitration-case-events"`

	// Command intake mode: "sync" (HTTP only) or "kafka" (async via Kafka)
	IntakeMode string `env:"INTAKE_MODE" envDefault:"sync"`

	// Kafka configuration
	KafkaBrokers                   []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaCaseEventsTopic           string   `env:"KAFKA_CASE_EVENTS_TOPIC" envDefault:"arbitration.case-events"`
	KafkaCaseCommandsTopic         string   `env:"KAFKA_CASE_COMMANDS_TOPIC" envDefault:"arbitration.case-commands"`
	KafkaCaseCommandsConsumerGroup string   `env:"KAFKA_CASE_COMMANDS_CONSUMER_GROUP" envDefault:"arbitron-case-commands"`
	KafkaCaseCommandsDLQTopic      string   `env:"KAFKA_CASE_COMMANDS_DLQ_TOPIC" envDefault:"arbitration.case-commands.dlq"`
}

func New() (Config, error) {
	c, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, err
	}

	return c, nil
}
