package ports

import (
	"context"

	"github.com/busmind/stopfinder-cli/internal/domain"
)

// AccountRepository stores the single configured upstream account.
type AccountRepository interface {
	// Load returns the configured account or domain.ErrAccountNotConfigured.
	Load(ctx context.Context) (domain.Account, error)
	Save(ctx context.Context, account domain.Account) error
	Clear(ctx context.Context) error
}
