// Package respond writes JSON bodies and error envelopes
package respond

import (
	"encoding/json"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/recipeatlas/server/pkg/errors"
	"go.uber.org/zap"
)

// JSON writes v with the given status
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// Message writes {"message": msg}
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"message": msg})
}

// Error converts err to an AppError and writes the error envelope. Server
// errors are logged with their cause; clients only see the generic message.
func Error(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	appErr := errors.Wrap(err, "An unexpected error occurred")
	requestID := chimiddleware.GetReqID(r.Context())

	if appErr.StatusCode() >= http.StatusInternalServerError {
		log.Error("Request failed",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("code", string(appErr.Code)),
			zap.Error(appErr.Cause),
			zap.String("stack", appErr.StackTrace),
		)
	} else {
		log.Debug("Request rejected",
			zap.String("request_id", requestID),
			zap.String("code", string(appErr.Code)),
			zap.String("message", appErr.Message),
		)
	}

	JSON(w, appErr.StatusCode(), errors.ToErrorResponse(appErr, requestID))
}
