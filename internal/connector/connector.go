package connector

import (
	"context"

	"github.com/crimson-sun/cardport/internal/model"
)

// CardCreator creates cards on a remote BI instance.
type CardCreator interface {
	// CreateCard issues one create-card call and returns the created card.
	CreateCard(ctx context.Context, req model.CardRequest) (model.Card, error)
}
