package claims

import (
	"context"
	"errors"
)

const (
	RoleAdmin = "ROLE_ADMIN"
	RoleUser  = "ROLE_USER"
)

var ErrUnauthenticated = errors.New("user not authenticated")

// User is the authenticated caller. The zero value is anonymous.
type User struct {
	Login       string
	Authorities []string
}

func (u User) Authenticated() bool {
	return u.Login != ""
}

type ctxKey int

const userKey ctxKey = 1

func Set(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func Get(ctx context.Context) (User, error) {
	v, ok := ctx.Value(userKey).(User)
	if !ok || !v.Authenticated() {
		return User{}, ErrUnauthenticated
	}
	return v, nil
}
