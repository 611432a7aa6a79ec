package config

import "go.uber.org/fx"

// Module wires application configuration and the credit mapping holder.
var Module = fx.Module("config",
	fx.Provide(
		Load,
		NewCreditMappingHolder,
	),
)
