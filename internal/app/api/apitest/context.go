package apitest

import (
	"context"
	"net/http"
)

func contextWithUser(r *http.Request, u *fakeUser) context.Context {
	return context.WithValue(r.Context(), ctxKey{}, u)
}

func userFrom(r *http.Request) *fakeUser {
	u, _ := r.Context().Value(ctxKey{}).(*fakeUser)
	return u
}
