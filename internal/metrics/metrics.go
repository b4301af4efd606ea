package metrics

import (
	"context"
	"database/sql"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	Database *DatabaseMetrics
	meter    metric.Meter
	logger   *slog.Logger
}

// New creates the collectors on the global meter provider. Without an SDK
// installed that provider is a no-op.
func New(ctx context.Context, serviceName string, logger *slog.Logger) (*Metrics, error) {
	return NewWithMeter(ctx, otel.Meter(serviceName), logger)
}

func NewWithMeter(ctx context.Context, meter metric.Meter, logger *slog.Logger) (*Metrics, error) {
	database, err := NewDatabaseMetrics(meter)
	if err != nil {
		return nil, err
	}

	logger.DebugContext(ctx, "metrics collectors initialized")

	return &Metrics{
		Database: database,
		meter:    meter,
		logger:   logger,
	}, nil
}

// RegisterDB starts observing the pool behind db.
func (m *Metrics) RegisterDB(db *sql.DB) error {
	if m.meter == nil {
		return nil
	}
	return m.Database.RegisterDB(db, m.meter)
}

// NewMock creates a no-op Metrics instance for testing.
func NewMock() *Metrics {
	return &Metrics{
		Database: &DatabaseMetrics{},
	}
}
