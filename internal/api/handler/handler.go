// Package handler adapts HTTP requests to service calls.
package handler

import (
	"net/http"
	"strconv"

	"github.com/utsav306/farmconnect-sub000/internal/apperr"
	"github.com/utsav306/farmconnect-sub000/internal/middleware"
)

// caller returns the principal Auth attached. Routes using it are always
// mounted behind Auth.
func caller(r *http.Request) middleware.Principal {
	p, _ := middleware.PrincipalFrom(r.Context())
	return p
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.InvalidArgf("%s must be a whole number", name)
	}
	return n, nil
}
