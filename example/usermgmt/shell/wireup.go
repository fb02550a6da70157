package shell

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"

	"github.com/rachid/smart-domain/eventbus"
	"github.com/rachid/smart-domain/eventbus/auditpostgres"
	"github.com/rachid/smart-domain/eventbus/handlers"
	"github.com/rachid/smart-domain/eventbus/oteladapters"
)

const instrumentationName = "usermgmt"

// NewDomainEventBus assembles the single per-process Bus with OpenTelemetry
// observability and subscribes the generic audit and metrics handlers for the
// user domain. auditTableEnabled gates the audit persistence step.
func NewDomainEventBus(
	pool *pgxpool.Pool,
	logger eventbus.Logger,
	auditTableEnabled bool,
) (*eventbus.Bus, error) {

	metricsCollector := oteladapters.NewMetricsCollector(otel.Meter(instrumentationName))

	bus, busErr := eventbus.NewBus(
		eventbus.WithLogger(logger),
		eventbus.WithContextualLogger(oteladapters.NewSlogBridgeLogger(instrumentationName)),
		eventbus.WithMetrics(metricsCollector),
		eventbus.WithTracing(oteladapters.NewTracingCollector(otel.Tracer(instrumentationName))),
	)
	if busErr != nil {
		return nil, busErr
	}

	auditStore, storeErr := auditpostgres.NewAuditStoreFromPGXPool(pool,
		auditpostgres.WithLogger(logger))
	if storeErr != nil {
		return nil, storeErr
	}

	auditHandler, auditErr := handlers.NewAuditHandler("user",
		handlers.WithAuditLogger(logger),
		handlers.WithAuditStore(auditStore),
		handlers.WithPersistenceEnabled(auditTableEnabled))
	if auditErr != nil {
		return nil, auditErr
	}

	metricsHandler, metricsErr := handlers.NewMetricsHandler("user", metricsCollector,
		handlers.WithMetricsLogger(logger))
	if metricsErr != nil {
		return nil, metricsErr
	}

	for _, pattern := range []string{"user.*"} {
		if err := bus.Subscribe(pattern, auditHandler); err != nil {
			return nil, err
		}

		if err := bus.Subscribe(pattern, metricsHandler); err != nil {
			return nil, err
		}
	}

	return bus, nil
}
