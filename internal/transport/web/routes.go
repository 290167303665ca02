package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/avstrong/studio/internal/booking"
	"github.com/avstrong/studio/internal/calendar"
	"github.com/avstrong/studio/internal/payment"
)

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode body: %w", err)
	}

	return nil
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)

	return id, err == nil && id > 0
}

func queryDate(r *http.Request, key string) (calendar.Date, bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return calendar.Date{}, false, nil
	}

	d, err := calendar.Parse(raw)
	if err != nil {
		return calendar.Date{}, false, fmt.Errorf("%s: %w", key, err)
	}

	return d, true, nil
}

// actor is only called behind authMiddleware.
func actor(r *http.Request) booking.Actor {
	a, _ := booking.ActorFromContext(r.Context())

	return a
}

func (s *Server) getScheduleHandler(w http.ResponseWriter, r *http.Request) {
	start, ok, err := queryDate(r, "start")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())

		return
	}

	if !ok {
		start = calendar.Today(s.now)
	}

	days := s.conf.WindowDays

	if raw := r.URL.Query().Get("days"); raw != "" {
		if days, err = strconv.Atoi(raw); err != nil {
			writeMessage(w, http.StatusBadRequest, "days must be an integer")

			return
		}
	}

	window, err := s.projector.BuildWindow(r.Context(), start, days)
	if err != nil {
		s.respondError(w, "build schedule window", err)

		return
	}

	s.respond(w, http.StatusOK, window)
}

func (s *Server) getScheduleDayHandler(w http.ResponseWriter, r *http.Request) {
	date, err := calendar.Parse(r.PathValue("date"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "date must be YYYY-MM-DD")

		return
	}

	day, err := s.projector.BuildDay(r.Context(), date)
	if err != nil {
		s.respondError(w, "build schedule day", err)

		return
	}

	s.respond(w, http.StatusOK, day)
}

func (s *Server) listBookingsHandler(w http.ResponseWriter, r *http.Request) {
	from, fromOK, err := queryDate(r, "from")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())

		return
	}

	to, toOK, err := queryDate(r, "to")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())

		return
	}

	if !fromOK || !toOK {
		writeMessage(w, http.StatusBadRequest, "from and to are required")

		return
	}

	bookings, err := s.bookings.List(r.Context(), from, to)
	if err != nil {
		s.respondError(w, "list bookings", err)

		return
	}

	if bookings == nil {
		bookings = []*booking.Booking{}
	}

	s.respond(w, http.StatusOK, bookings)
}

func (s *Server) getBookingHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid booking id")

		return
	}

	b, err := s.bookings.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, "get booking", err)

		return
	}

	s.respond(w, http.StatusOK, b)
}

func (s *Server) createBookingHandler(w http.ResponseWriter, r *http.Request) {
	var input booking.CreateInput

	if err := decodeBody(r, &input); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())

		return
	}

	b, err := s.bookings.Create(r.Context(), actor(r), &input)
	if err != nil {
		s.respondError(w, "create booking", err)

		return
	}

	s.respond(w, http.StatusCreated, b)
}

func (s *Server) rescheduleBookingHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid booking id")

		return
	}

	var input booking.RescheduleInput

	if err := decodeBody(r, &input); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())

		return
	}

	input.ID = id

	b, err := s.bookings.Reschedule(r.Context(), actor(r), &input)
	if err != nil {
		s.respondError(w, "reschedule booking", err)

		return
	}

	s.respond(w, http.StatusOK, b)
}

func (s *Server) deleteBookingHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid booking id")

		return
	}

	if err := s.bookings.Delete(r.Context(), actor(r), id); err != nil {
		s.respondError(w, "delete booking", err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) contributorPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.payments.ListForOwner(r.Context(), actor(r).ID)
	if err != nil {
		s.respondError(w, "list payments", err)

		return
	}

	if summaries == nil {
		summaries = []*payment.Summary{}
	}

	s.respond(w, http.StatusOK, summaries)
}

type calculatePaymentsRequest struct {
	Year     int      `json:"year"`
	Month    int      `json:"month"`
	OwnerIDs []string `json:"owner_ids"`
}

// calculatePaymentsHandler recalculates one period. Without year and month it
// covers the previous calendar month.
func (s *Server) calculatePaymentsHandler(w http.ResponseWriter, r *http.Request) {
	var req calculatePaymentsRequest

	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())

		return
	}

	period := s.payments.PreviousPeriod()
	if req.Year != 0 || req.Month != 0 {
		var err error
		if period, err = payment.NewPeriod(req.Year, time.Month(req.Month)); err != nil {
			s.respondError(w, "parse payment period", err)

			return
		}
	}

	owners := req.OwnerIDs
	if len(owners) == 0 {
		owners = s.conf.Contributors
	}

	result, err := s.payments.Recalculate(r.Context(), period, owners)
	if err != nil {
		s.respondError(w, "recalculate payments", err)

		return
	}

	s.respond(w, http.StatusOK, result)
}

func (s *Server) livenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) addRoutes(r *http.ServeMux) {
	public := func(h http.HandlerFunc) http.Handler {
		return s.applyMiddlewares(h, s.loggerMiddleware(), s.recoverMiddleware())
	}

	private := func(h http.HandlerFunc) http.Handler {
		return s.applyMiddlewares(h, s.authMiddleware(), s.loggerMiddleware(), s.recoverMiddleware())
	}

	admin := func(h http.HandlerFunc) http.Handler {
		return s.applyMiddlewares(h, s.adminMiddleware(), s.authMiddleware(), s.loggerMiddleware(), s.recoverMiddleware())
	}

	r.Handle("GET /api/schedule", public(s.getScheduleHandler))
	r.Handle("GET /api/schedule/days/{date}", public(s.getScheduleDayHandler))

	r.Handle("GET /api/bookings", private(s.listBookingsHandler))
	r.Handle("GET /api/bookings/{id}", private(s.getBookingHandler))
	r.Handle("POST /api/bookings", private(s.createBookingHandler))
	r.Handle("POST /api/bookings/{id}/reschedule", private(s.rescheduleBookingHandler))
	r.Handle("DELETE /api/bookings/{id}", private(s.deleteBookingHandler))

	r.Handle("GET /api/contributor/payments", private(s.contributorPaymentsHandler))
	r.Handle("POST /api/admin/payments/calculate", admin(s.calculatePaymentsHandler))

	r.Handle(fmt.Sprintf("GET %s", s.conf.LivenessEndpoint), public(s.livenessHandler))
}
