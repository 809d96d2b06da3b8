package service

import (
	"context"
	"strings"

	"github.com/noah-isme/lingua-crm-api/internal/models"
	appErrors "github.com/noah-isme/lingua-crm-api/pkg/errors"
)

// ActorProvider resolves who is performing the current operation. Services
// call it before opening any store write.
type ActorProvider interface {
	CurrentActor(ctx context.Context) (models.Actor, error)
}

type actorKey struct{}

// WithActor returns a context carrying actor.
func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor stored by WithActor.
func ActorFromContext(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(models.Actor)
	return actor, ok && strings.TrimSpace(actor.ID) != ""
}

// ContextActorProvider reads the actor the auth middleware put in the request context.
type ContextActorProvider struct{}

// CurrentActor implements ActorProvider.
func (ContextActorProvider) CurrentActor(ctx context.Context) (models.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return models.Actor{}, appErrors.Clone(appErrors.ErrUnauthorized, "no authenticated actor")
	}
	if actor.Name == "" {
		actor.Name = actor.ID
	}
	return actor, nil
}

// StaticActorProvider always returns the same actor. Used by background jobs and tests.
type StaticActorProvider struct {
	Actor models.Actor
}

// CurrentActor implements ActorProvider.
func (p StaticActorProvider) CurrentActor(context.Context) (models.Actor, error) {
	return p.Actor, nil
}
