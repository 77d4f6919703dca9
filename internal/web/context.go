package web

import (
	"context"

	"kinly/internal/model"
)

type contextKey int

const userKey contextKey = iota

func WithUser(ctx context.Context, user model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func CurrentUser(ctx context.Context) (model.User, bool) {
	value := ctx.Value(userKey)
	user, ok := value.(model.User)
	return user, ok
}

// currentUserID is only called behind requireUser.
func currentUserID(ctx context.Context) string {
	user, _ := CurrentUser(ctx)
	return user.ID
}
