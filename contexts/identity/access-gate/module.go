package accessgate

import (
	"log/slog"

	httpadapter "agora/contexts/identity/access-gate/adapters/http"
	"agora/contexts/identity/access-gate/adapters/memory"
	"agora/contexts/identity/access-gate/application/commands"
	"agora/contexts/identity/access-gate/application/queries"
	"agora/contexts/identity/access-gate/ports"
)

// Module is the access-gate composition root.
type Module struct {
	Handler httpadapter.Handler
	Checks  queries.CheckUseCase
}

type Dependencies struct {
	Repository ports.GateRepository
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	checks := queries.CheckUseCase{
		Repository: deps.Repository,
	}
	gate := commands.GateUseCase{
		Repository: deps.Repository,
		Logger:     deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Gate:   gate,
			Checks: checks,
			Logger: deps.Logger,
		},
		Checks: checks,
	}
}

// NewInMemoryModule wires the gate against in-memory state, open by default.
func NewInMemoryModule(admins []string, logger *slog.Logger) Module {
	return NewModule(Dependencies{
		Repository: memory.NewStore(admins, true),
		Logger:     logger,
	})
}
