package components

import (
	"washbook/internal/pkg/clock"
	"washbook/internal/usecase/commands"
	"washbook/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	fx.Provide(
		clock.NewRealClock,
		commands.NewReservationCommands,
		commands.NewPaymentBridge,
		queries.NewReservationQueries,
		queries.NewAvailabilityQueries,
	),
)
