package components

import (
	"washbook/internal/infra/pgstore"
	"washbook/internal/usecase/commands"
	"washbook/internal/usecase/queries"
	"washbook/internal/worker"

	"go.uber.org/fx"
)

// One pgstore.Ledger instance backs every slice of the reservation store:
// command-side writes, read-side queries, the sweeper's scan and the outbox.
var RepositoryModule = fx.Module("repository",
	fx.Provide(
		pgstore.NewLedger,
		pgstore.NewResourceStore,
		pgstore.NewServiceStore,
		func(l *pgstore.Ledger) commands.ReservationLedger { return l },
		func(l *pgstore.Ledger) queries.ReservationReadStore { return l },
		func(l *pgstore.Ledger) queries.ActiveReservationReader { return l },
		func(l *pgstore.Ledger) worker.HoldScanner { return l },
		func(l *pgstore.Ledger) worker.EventOutbox { return l },
		func(s *pgstore.ResourceStore) commands.ResourceReader { return s },
		func(s *pgstore.ResourceStore) queries.ResourceReadStore { return s },
		func(s *pgstore.ServiceStore) commands.ServiceReader { return s },
		func(s *pgstore.ServiceStore) queries.ServiceReadStore { return s },
	),
)
