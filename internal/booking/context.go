package booking

import "context"

type contextKey string

const actorKey contextKey = "actor"

func NewContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey).(Actor)

	return actor, ok && actor.ID != ""
}
