package db

import (
	"context"

	"github.com/ukydev/metro-telemetry/internal/models"
)

// VehicleStateCollection stores the latest status of each vehicle.
type VehicleStateCollection interface {
	UpsertVehicles(ctx context.Context, vehicles []models.VehicleStatus) error
}

// OperatorCollection defines the interface for operator account lookups.
type OperatorCollection interface {
	FindOperatorByUsername(ctx context.Context, username string) (*models.Operator, error)
	UpsertOperator(ctx context.Context, operator models.Operator) error
}
