package handler

import (
	"net/http"
	"strconv"

	"github.com/veltacap/custodian/internal/context"
	"github.com/veltacap/custodian/internal/models"
)

type queryStringValues struct {
	Status string
	Limit  int
	Offset int
}

func retrieveUrlQueryValues(r *http.Request) *queryStringValues {
	var queryValues = &queryStringValues{}

	limitStr := r.URL.Query().Get("limit")
	pageStr := r.URL.Query().Get("page")

	// Default pagination values
	offset := 0
	limit := 10

	if limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}
	queryValues.Limit = limit

	if pageStr != "" {
		if parsedPage, err := strconv.Atoi(pageStr); err == nil && parsedPage >= 1 {
			offset = (parsedPage - 1) * limit
		}
	}
	queryValues.Offset = offset

	queryValues.Status = r.URL.Query().Get("status")

	return queryValues
}

// requestActor converts the authenticated admin into the actor identity the
// engine stamps on audit entries. Routes behind RequireAuthenticatedAdmin
// always have one.
func requestActor(r *http.Request) models.Actor {
	admin := context.ContextGetAuthenticatedAdmin(r)
	if admin == nil {
		return models.Actor{}
	}

	return models.Actor{
		ID:   admin.ID,
		Name: admin.FirstName + " " + admin.LastName,
		Role: admin.Role,
	}
}
