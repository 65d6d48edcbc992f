package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"spendboard/internal/log"
	"spendboard/internal/services"
	"spendboard/internal/sources"
	"spendboard/internal/sources/resilient"
)

const maxAccountLen = 64

// handleDisplay renders the requested account and serves the PNG, with the
// digest as a strong ETag.
func (s *Server) handleDisplay(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())

	account := strings.TrimSpace(r.URL.Query().Get("account"))
	if !validAccount(account) {
		http.Error(w, "invalid account", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.renderTimeout)
	defer cancel()

	res, err := s.renderer.Generate(ctx, services.Request{Account: account})
	if err != nil {
		status := statusFor(err)
		logger.ErrorContext(ctx, "Display request failed",
			log.FieldAccount, account, log.FieldStatusCode, status, log.FieldError, err)
		http.Error(w, http.StatusText(status), status)
		return
	}

	etag := `"` + res.Digest + `"`
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(res.PNG)))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(res.PNG); err != nil {
		logger.WarnContext(ctx, "Display write interrupted", log.FieldAccount, account, log.FieldError, err)
	}
}

// statusFor maps pipeline errors to response codes.
func statusFor(err error) int {
	switch {
	case services.IsDataError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, sources.ErrUnavailable),
		errors.Is(err, resilient.ErrCircuitOpen),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// validAccount accepts an empty account (the default) or a short name of
// letters, digits, '-', '_' and '.'.
func validAccount(a string) bool {
	if len(a) > maxAccountLen {
		return false
	}
	for _, r := range a {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}
