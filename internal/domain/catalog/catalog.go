// Package catalog exposes the data-service marketplace records the
// arbitration engine needs: which services exist, who provides them, and the
// service-level stake that settlement may slash.
package catalog

import (
	"context"
	"errors"

	"arbitron/internal/domain/money"
)

//go:generate mockgen -source catalog.go -destination mock_catalog.go -package catalog

var (
	ErrUnknownService = errors.New("unknown service")
)

type ServiceStatus string

const (
	StatusActive    ServiceStatus = "active"
	StatusPaused    ServiceStatus = "paused"
	StatusCancelled ServiceStatus = "cancelled"
)

// Service is a marketplace data service as the catalog records it.
type Service struct {
	ID     string        `json:"id"`
	Status ServiceStatus `json:"status"`
}

// ProviderStake is one provider's stake bound to one service.
type ProviderStake struct {
	ServiceID string      `json:"service_id"`
	Account   string      `json:"account"`
	Stake     money.Money `json:"stake"`
}

// TxRepo is the catalog as seen from inside an arbitration transaction.
type TxRepo interface {
	GetService(ctx context.Context, serviceID string) (*Service, error)
	// ProviderStakes returns the providers of a service with their current
	// service-level stake. Empty when the service has no providers.
	ProviderStakes(ctx context.Context, serviceID string) ([]ProviderStake, error)
	// SlashServiceStake zeroes one provider's stake on the service and
	// returns the amount taken.
	SlashServiceStake(ctx context.Context, serviceID, account string) (money.Money, error)
}
