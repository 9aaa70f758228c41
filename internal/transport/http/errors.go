package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/outductor/stream-system-backend/internal/domain"
	"github.com/sirupsen/logrus"
)

const (
	codeInvalidInput        = "INVALID_INPUT"
	codeInvalidPasscode     = "INVALID_PASSCODE"
	codeInvalidTimeInterval = "INVALID_TIME_INTERVAL"
	codeInvalidTimeRange    = "INVALID_TIME_RANGE"
	codeDurationTooLong     = "DURATION_TOO_LONG"
	codePastTime            = "PAST_TIME"
	codeBeforeEventStart    = "BEFORE_EVENT_START"
	codeExceedsEventEnd     = "EXCEEDS_EVENT_END"
	codeRangeTooLarge       = "RANGE_TOO_LARGE"
	codeTimeConflict        = "TIME_CONFLICT"
	codeNotFound            = "NOT_FOUND"
	codeMethodNotAllowed    = "METHOD_NOT_ALLOWED"
	codeInvalidRequest      = "INVALID_REQUEST"
	codeStorageUnavailable  = "STORAGE_UNAVAILABLE"
	codeInternalError       = "INTERNAL_ERROR"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Code:    code,
		Message: msg,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"code":"INTERNAL_ERROR","message":"internal error"}`))
		return
	}
	_, _ = w.Write(payload)
}

type errorMapping struct {
	err    error
	status int
	code   string
}

var domainErrors = []errorMapping{
	{domain.ErrInvalidInput, http.StatusBadRequest, codeInvalidInput},
	{domain.ErrInvalidPasscode, http.StatusBadRequest, codeInvalidPasscode},
	{domain.ErrInvalidTimeInterval, http.StatusBadRequest, codeInvalidTimeInterval},
	{domain.ErrInvalidTimeRange, http.StatusBadRequest, codeInvalidTimeRange},
	{domain.ErrDurationTooLong, http.StatusBadRequest, codeDurationTooLong},
	{domain.ErrPastTime, http.StatusBadRequest, codePastTime},
	{domain.ErrBeforeEventStart, http.StatusBadRequest, codeBeforeEventStart},
	{domain.ErrExceedsEventEnd, http.StatusBadRequest, codeExceedsEventEnd},
	{domain.ErrRangeTooLarge, http.StatusBadRequest, codeRangeTooLarge},
	{domain.ErrTimeConflict, http.StatusConflict, codeTimeConflict},
	{domain.ErrReservationNotFound, http.StatusNotFound, codeNotFound},
}

// writeServiceError maps engine errors to a response. Anything unknown is
// logged and reported as an internal error without its details.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger logrus.FieldLogger, err error) {
	for _, m := range domainErrors {
		if errors.Is(err, m.err) {
			writeError(w, m.status, m.code, err.Error())
			return
		}
	}

	entry := logger.WithError(err).WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	})
	if errors.Is(err, domain.ErrStorage) {
		entry.Error("storage failure")
		writeError(w, http.StatusServiceUnavailable, codeStorageUnavailable, "storage unavailable, try again")
		return
	}
	entry.Error("unexpected error")
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
