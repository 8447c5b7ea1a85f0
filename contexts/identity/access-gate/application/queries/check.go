package queries

import (
	"context"
	"strings"

	"agora/contexts/identity/access-gate/ports"
)

// CheckUseCase is the read side other contexts consume as their AccessGate
// port: role check plus operational flag.
type CheckUseCase struct {
	Repository ports.GateRepository
}

func (uc CheckUseCase) IsAuthorized(ctx context.Context, caller string) (bool, error) {
	return uc.Repository.IsAdmin(ctx, strings.TrimSpace(caller))
}

func (uc CheckUseCase) IsOperational(ctx context.Context) (bool, error) {
	return uc.Repository.Operational(ctx)
}
