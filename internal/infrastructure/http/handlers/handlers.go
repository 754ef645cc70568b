// Package handlers provides the HTTP handlers of the JSON API
package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/recipeatlas/server/internal/infrastructure/http/middleware"
	"github.com/recipeatlas/server/internal/infrastructure/http/respond"
	"github.com/recipeatlas/server/internal/ports/inbound"
	"github.com/recipeatlas/server/pkg/errors"
	"go.uber.org/zap"
)

const defaultFeedLimit = 10

// base holds what every handler group needs
type base struct {
	logger    *zap.Logger
	validator *Validator
}

func (b base) fail(w http.ResponseWriter, r *http.Request, err error) {
	respond.Error(w, r, b.logger, err)
}

// decode reads a JSON body into dst and validates it
func (b base) decode(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case stderrors.As(err, &tooLarge):
			return errors.NewBadRequestError("Request body too large")
		case stderrors.Is(err, io.EOF):
			return errors.NewBadRequestError("Request body is required")
		default:
			return errors.NewBadRequestError("Malformed JSON body")
		}
	}
	return b.validator.Struct(dst)
}

// actor returns the signed-in user. RequireAuth guards every route that
// calls it, so a miss is reported as 401 rather than trusted.
func actor(r *http.Request) (uint, error) {
	id, ok := middleware.Actor(r)
	if !ok {
		return 0, errors.NewUnauthorizedError("Authentication required")
	}
	return id, nil
}

// pathID parses a numeric URL parameter
func pathID(r *http.Request, name string) (uint, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.NewNotFoundError("")
	}
	return uint(id), nil
}

// queryUint reads an optional positive integer filter; junk reads as unset
func queryUint(r *http.Request, name string) uint {
	v, err := strconv.ParseUint(r.URL.Query().Get(name), 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// pageQuery reads page and per_page; clamping happens in the services
func pageQuery(r *http.Request) inbound.PageQuery {
	return inbound.PageQuery{
		Page:    queryInt(r, "page", 0),
		PerPage: queryInt(r, "per_page", 0),
	}
}
