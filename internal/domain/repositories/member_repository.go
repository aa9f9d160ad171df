package repositories

import (
	"context"

	"github.com/zatekoja/careline/internal/domain/entities"
)

// MemberRepository defines the interface for member data operations
type MemberRepository interface {
	// GetByPhone retrieves a member by canonical phone number
	GetByPhone(ctx context.Context, phone string) (*entities.Member, error)

	// Update applies a partial update in one transaction and returns the stored row
	Update(ctx context.Context, phone string, update *entities.MemberUpdate) (*entities.Member, error)
}

// ProviderRepository defines the interface for provider lookups
type ProviderRepository interface {
	// GetByID retrieves a provider by ID
	GetByID(ctx context.Context, id int64) (*entities.Provider, error)
}

// EscalationRepository defines the interface for recording escalations
type EscalationRepository interface {
	// Create appends a new escalation row and fills in its ID and CreatedAt
	Create(ctx context.Context, escalation *entities.Escalation) error
}
