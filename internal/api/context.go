package api

import (
	"context"

	"github.com/hirehub/interview-engine/internal/models"
)

type contextKey string

const partyContextKey contextKey = "party"

// PartyFromContext extracts the calling Party from context
func PartyFromContext(ctx context.Context) models.Party {
	party, ok := ctx.Value(partyContextKey).(models.Party)
	if !ok {
		return models.Party{}
	}
	return party
}

// ContextWithParty adds the calling Party to context
func ContextWithParty(ctx context.Context, party models.Party) context.Context {
	return context.WithValue(ctx, partyContextKey, party)
}
