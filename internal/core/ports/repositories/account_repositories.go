package repositories

import (
	"context"

	"github.com/statera-app/statera/internal/core/domain"
)

// AccountRepositoryFacade defines persistence operations for accounts.
// Lookups are always owner-scoped; a miss and a cross-owner hit are both
// apperrors.ErrNotFound.
type AccountRepositoryFacade interface {
	SaveAccount(ctx context.Context, account domain.Account) error
	FindAccountByID(ctx context.Context, ownerID, accountID string) (*domain.Account, error)
	FindAccountsByIDs(ctx context.Context, ownerID string, accountIDs []string) (map[string]domain.Account, error)
	ListAccountsByOwner(ctx context.Context, ownerID string) ([]domain.Account, error)
	// FindSystemAccountByName locates a system-bootstrapped account such as
	// the Processing account. Returns ErrNotFound when absent.
	FindSystemAccountByName(ctx context.Context, ownerID, name string) (*domain.Account, error)
}
