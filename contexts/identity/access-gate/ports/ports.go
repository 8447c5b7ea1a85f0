package ports

import "context"

// GateRepository stores the administrator whitelist and the operational flag.
type GateRepository interface {
	IsAdmin(ctx context.Context, caller string) (bool, error)
	Operational(ctx context.Context) (bool, error)
	SetOperational(ctx context.Context, operational bool) error
}
