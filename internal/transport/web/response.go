package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/avstrong/studio/internal/booking"
	"github.com/avstrong/studio/internal/payment"
	"github.com/avstrong/studio/internal/schedule"
)

type messageResponse struct {
	Error string `json:"error"`
}

type inputErrorResponse struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields"`
}

type conflictResponse struct {
	Error          string  `json:"error"`
	ConflictingIDs []int64 `json:"conflicting_ids"`
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	_ = writeJSON(w, status, messageResponse{Error: msg})
}

func (s *Server) respond(w http.ResponseWriter, status int, v any) {
	if err := writeJSON(w, status, v); err != nil {
		s.l.LogErrorf("Could not encode response: %v", err.Error())
	}
}

// respondError maps domain errors onto HTTP statuses. Anything unexpected is logged
// and hidden behind a 500.
func (s *Server) respondError(w http.ResponseWriter, op string, err error) {
	if inputErr := booking.IsInputError(err); inputErr != nil {
		s.respond(w, http.StatusBadRequest, inputErrorResponse{Error: "invalid input", Fields: inputErr.Fields()})

		return
	}

	if conflictErr := booking.IsConflictError(err); conflictErr != nil {
		ids := conflictErr.ConflictingIDs()
		if ids == nil {
			ids = []int64{}
		}

		s.respond(w, http.StatusConflict, conflictResponse{Error: conflictErr.Error(), ConflictingIDs: ids})

		return
	}

	switch {
	case errors.Is(err, booking.ErrRecordNotFound), errors.Is(err, schedule.ErrDayNotFound):
		writeMessage(w, http.StatusNotFound, "not found")
	case errors.Is(err, booking.ErrForbidden):
		writeMessage(w, http.StatusForbidden, "operation not allowed")
	case errors.Is(err, schedule.ErrInvalidWindow),
		errors.Is(err, payment.ErrInvalidPeriod),
		errors.Is(err, payment.ErrOwnerRequired):
		writeMessage(w, http.StatusBadRequest, err.Error())
	default:
		s.l.LogErrorf("Could not %s: %v", op, err.Error())
		writeMessage(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}
