package context

import (
	"context"
	"net/http"

	"github.com/veltacap/custodian/internal/models"
)

type contextKey string

const (
	authenticatedAdminContextKey = contextKey("authenticatedAdmin")
)

func ContextSetAuthenticatedAdmin(r *http.Request, admin *models.Admin) *http.Request {
	ctx := context.WithValue(r.Context(), authenticatedAdminContextKey, admin)
	return r.WithContext(ctx)
}

func ContextGetAuthenticatedAdmin(r *http.Request) *models.Admin {
	admin, ok := r.Context().Value(authenticatedAdminContextKey).(*models.Admin)
	if !ok {
		return nil
	}

	return admin
}
