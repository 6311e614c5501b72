package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
)

// pathString binds a required simple-style path parameter as a string.
func pathString(r *http.Request, name string) (string, error) {
	var out string
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &out,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return "", fmt.Errorf("invalid format for parameter %s: %w", name, err)
	}
	return out, nil
}

// pathUUID binds a required simple-style path parameter as a UUID.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	var out uuid.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &out,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid format for parameter %s: %w", name, err)
	}
	return out, nil
}

// queryInt binds an optional form-style query parameter. A missing
// parameter yields nil.
func queryInt(r *http.Request, name string) (*int, error) {
	var out *int
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), &out); err != nil {
		return nil, fmt.Errorf("invalid format for parameter %s: %w", name, err)
	}
	return out, nil
}

// tripName reads {name}, writing a 422 itself when it cannot be bound.
func tripName(w http.ResponseWriter, r *http.Request) (string, bool) {
	name, err := pathString(r, "name")
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
		return "", false
	}
	return name, true
}
