package sessionengine

import (
	"log/slog"

	httpadapter "agora/contexts/governance/session-engine/adapters/http"
	"agora/contexts/governance/session-engine/adapters/memory"
	"agora/contexts/governance/session-engine/application/commands"
	"agora/contexts/governance/session-engine/application/queries"
	"agora/contexts/governance/session-engine/ports"
)

// Module is the session-engine composition root exposed to runtime wiring.
type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	Sessions ports.SessionRepository
	Gate     ports.AccessGate
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Limits   commands.Limits
	Logger   *slog.Logger
}

func NewModule(deps Dependencies) Module {
	sessionUseCase := commands.NewSessionUseCase(commands.SessionUseCaseDeps{
		Sessions: deps.Sessions,
		Gate:     deps.Gate,
		Clock:    deps.Clock,
		IDGen:    deps.IDGen,
		Limits:   deps.Limits,
		Logger:   deps.Logger,
	})
	sessionQueries := queries.SessionQueries{
		Sessions: deps.Sessions,
	}
	return Module{
		Handler: httpadapter.Handler{
			Sessions: sessionUseCase,
			Queries:  sessionQueries,
			Logger:   deps.Logger,
		},
	}
}

// NewInMemoryModule builds a development/testing module backed by the
// in-memory arena.
func NewInMemoryModule(gate ports.AccessGate, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Sessions: store,
		Gate:     gate,
		Clock:    store,
		IDGen:    store,
		Logger:   logger,
	})
	module.Store = store
	return module
}
