package main

import (
	"context"
	"net/http"

	"github.com/sushihentaime/devlog/internal/authz"
)

type contextKey string

const principalContextKey = contextKey("principal")

func (app *application) contextSetPrincipal(r *http.Request, p authz.Principal) *http.Request {
	ctx := context.WithValue(r.Context(), principalContextKey, p)
	return r.WithContext(ctx)
}

// contextGetPrincipal returns the anonymous principal when authenticate did not run.
func (app *application) contextGetPrincipal(r *http.Request) authz.Principal {
	p, ok := r.Context().Value(principalContextKey).(authz.Principal)
	if !ok {
		return authz.Anonymous
	}
	return p
}
