package core

import (
	"time"

	temporalclient "go.temporal.io/sdk/client"

	"github.com/edvin/saaslens/internal/analytics"
)

// Services bundles the record services over one database handle.
type Services struct {
	Customers       *CustomerService
	Products        *ProductService
	Subscriptions   *SubscriptionService
	Connections     *ConnectionService
	MetricSnapshots *MetricSnapshotService
	Metrics         *MetricsService
	Seeder          *Seeder
	Sync            *SyncService
}

func NewServices(db DB, tc temporalclient.Client, sealer TokenSealer, clock analytics.Clock, lifetimeMonths int) *Services {
	return &Services{
		Customers:       NewCustomerService(db),
		Products:        NewProductService(db),
		Subscriptions:   NewSubscriptionService(db),
		Connections:     NewConnectionService(db, sealer),
		MetricSnapshots: NewMetricSnapshotService(db),
		Metrics:         NewMetricsService(db, clock, lifetimeMonths),
		Seeder:          NewSeeder(db, func() time.Time { return clock.Now() }),
		Sync:            NewSyncService(db, tc),
	}
}
