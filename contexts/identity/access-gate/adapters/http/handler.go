package httpadapter

import (
	"context"
	"log/slog"

	"agora/contexts/identity/access-gate/application/commands"
	"agora/contexts/identity/access-gate/application/queries"
	httptransport "agora/contexts/identity/access-gate/transport/http"
)

type Handler struct {
	Gate   commands.GateUseCase
	Checks queries.CheckUseCase
	Logger *slog.Logger
}

func (h Handler) PauseHandler(ctx context.Context, caller string) error {
	return h.Gate.Pause(ctx, caller)
}

func (h Handler) ResumeHandler(ctx context.Context, caller string) error {
	return h.Gate.Resume(ctx, caller)
}

func (h Handler) StatusHandler(ctx context.Context) (httptransport.GateStatusResponse, error) {
	operational, err := h.Checks.IsOperational(ctx)
	if err != nil {
		return httptransport.GateStatusResponse{}, err
	}
	return httptransport.GateStatusResponse{Operational: operational}, nil
}
