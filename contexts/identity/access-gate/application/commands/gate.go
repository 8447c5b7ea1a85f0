package commands

import (
	"context"
	"log/slog"
	"strings"

	domainerrors "agora/contexts/identity/access-gate/domain/errors"
	"agora/contexts/identity/access-gate/ports"
)

// GateUseCase owns the pause/resume commands. Both are administrator-only;
// while paused, every mutating operation across the service is refused.
type GateUseCase struct {
	Repository ports.GateRepository
	Logger     *slog.Logger
}

func (uc GateUseCase) Pause(ctx context.Context, caller string) error {
	if err := uc.requireAdmin(ctx, caller); err != nil {
		return err
	}
	operational, err := uc.Repository.Operational(ctx)
	if err != nil {
		return err
	}
	if !operational {
		return domainerrors.ErrAlreadyPaused
	}
	if err := uc.Repository.SetOperational(ctx, false); err != nil {
		return err
	}
	uc.log().Warn("operational gate closed",
		"event", "gate_paused",
		"module", "identity/access-gate",
		"layer", "application",
		"caller", strings.TrimSpace(caller),
	)
	return nil
}

func (uc GateUseCase) Resume(ctx context.Context, caller string) error {
	if err := uc.requireAdmin(ctx, caller); err != nil {
		return err
	}
	operational, err := uc.Repository.Operational(ctx)
	if err != nil {
		return err
	}
	if operational {
		return domainerrors.ErrNotPaused
	}
	if err := uc.Repository.SetOperational(ctx, true); err != nil {
		return err
	}
	uc.log().Info("operational gate reopened",
		"event", "gate_resumed",
		"module", "identity/access-gate",
		"layer", "application",
		"caller", strings.TrimSpace(caller),
	)
	return nil
}

func (uc GateUseCase) requireAdmin(ctx context.Context, caller string) error {
	admin, err := uc.Repository.IsAdmin(ctx, strings.TrimSpace(caller))
	if err != nil {
		return err
	}
	if !admin {
		return domainerrors.ErrUnauthorized
	}
	return nil
}

func (uc GateUseCase) log() *slog.Logger {
	if uc.Logger == nil {
		return slog.Default()
	}
	return uc.Logger
}
