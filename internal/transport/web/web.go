package web

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/avstrong/studio/internal/auth"
	"github.com/avstrong/studio/internal/booking"
	"github.com/avstrong/studio/internal/calendar"
	"github.com/avstrong/studio/internal/logger"
	"github.com/avstrong/studio/internal/payment"
	"github.com/avstrong/studio/internal/schedule"
)

var (
	ErrPanic         = errors.New("panic while serving request")
	ErrMissingParams = errors.New("missing dependencies")
)

type bookingService interface {
	Create(ctx context.Context, actor booking.Actor, input *booking.CreateInput) (*booking.Booking, error)
	Reschedule(ctx context.Context, actor booking.Actor, input *booking.RescheduleInput) (*booking.Booking, error)
	Delete(ctx context.Context, actor booking.Actor, id int64) error
	Get(ctx context.Context, id int64) (*booking.Booking, error)
	List(ctx context.Context, from, to calendar.Date) ([]*booking.Booking, error)
}

type scheduleService interface {
	BuildWindow(ctx context.Context, start calendar.Date, days int) (*schedule.Window, error)
	BuildDay(ctx context.Context, date calendar.Date) (*schedule.Day, error)
}

type paymentService interface {
	Recalculate(ctx context.Context, period payment.Period, ownerIDs []string) (*payment.BatchResult, error)
	ListForOwner(ctx context.Context, ownerID string) ([]*payment.Summary, error)
	PreviousPeriod() payment.Period
}

type tokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

type Server struct {
	srv       *http.Server
	router    *http.ServeMux
	l         *logger.Logger
	conf      Conf
	bookings  bookingService
	projector scheduleService
	payments  paymentService
	tokens    tokenParser
	now       func() time.Time
}

type Conf struct {
	L                 *logger.Logger
	ServerLogger      *log.Logger
	Host              string
	Port              string
	ReadHeaderTimeout time.Duration
	LivenessEndpoint  string
	WindowDays        int
	Contributors      []string
}

type Deps struct {
	Bookings  bookingService
	Projector scheduleService
	Payments  paymentService
	Tokens    tokenParser
}

func New(ctx context.Context, conf Conf, deps Deps) (*Server, error) {
	if deps.Bookings == nil || deps.Projector == nil || deps.Payments == nil || deps.Tokens == nil {
		return nil, ErrMissingParams
	}

	if conf.LivenessEndpoint == "" {
		conf.LivenessEndpoint = "/liveness"
	}

	if conf.WindowDays <= 0 {
		conf.WindowDays = schedule.DefaultWindowDays
	}

	mux := http.NewServeMux()

	//nolint:exhaustruct
	srv := &http.Server{
		Addr:              net.JoinHostPort(conf.Host, conf.Port),
		ReadHeaderTimeout: conf.ReadHeaderTimeout,
		ErrorLog:          conf.ServerLogger,
		Handler:           mux,
		BaseContext: func(listener net.Listener) context.Context {
			return ctx
		},
	}

	server := &Server{
		srv:       srv,
		router:    mux,
		l:         conf.L,
		conf:      conf,
		bookings:  deps.Bookings,
		projector: deps.Projector,
		payments:  deps.Payments,
		tokens:    deps.Tokens,
		now:       time.Now,
	}

	server.addRoutes(mux)

	return server, nil
}

func (s *Server) Srv() *http.Server {
	return s.srv
}

func (s *Server) Handler() http.Handler {
	return s.router
}
