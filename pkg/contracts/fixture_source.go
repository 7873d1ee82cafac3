package contracts

import (
	"context"

	"github.com/XavierBriggs/Pallas/pkg/models"
)

// FixtureSource defines the interface for retrieving fixtures from a remote league API
// Implementations must run the token and fixtures steps strictly in sequence
type FixtureSource interface {
	// FetchFixtures performs the authenticated retrieval and returns the full fixture list
	FetchFixtures(ctx context.Context) ([]models.Match, error)
}
