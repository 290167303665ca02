package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/avstrong/studio/internal/auth"
	"github.com/avstrong/studio/internal/booking"
	"github.com/avstrong/studio/internal/calendar"
	"github.com/avstrong/studio/internal/config"
	"github.com/avstrong/studio/internal/idgen/simple"
	"github.com/avstrong/studio/internal/logger"
	"github.com/avstrong/studio/internal/payment"
	"github.com/avstrong/studio/internal/schedule"
	"github.com/avstrong/studio/internal/seed"
	"github.com/avstrong/studio/internal/storage/memory"
	"github.com/avstrong/studio/internal/storage/sqlite"
	"github.com/avstrong/studio/internal/transport/web"
)

var ErrNoJWTSecret = errors.New("auth.jwt_secret is not configured")

// App holds the managers built over one configured store.
type App struct {
	Conf      *config.Config
	L         *logger.Logger
	Bookings  *booking.Manager
	Projector *schedule.Projector
	Payments  *payment.Manager

	close func() error
}

type store interface {
	booking.Storage
	payment.Storage
}

func New(conf *config.Config, l *logger.Logger) (*App, error) {
	var (
		st      store
		closeFn = func() error { return nil }
	)

	switch conf.Storage.Driver {
	case config.DriverMemory:
		st = memory.New(memory.Config{L: l, IDGen: simple.New()})

		l.LogWarnf("Using in-memory storage, data is lost on exit")
	default:
		db, err := OpenSQLite(conf, l)
		if err != nil {
			return nil, err
		}

		if err := db.Migrate(); err != nil {
			_ = db.Close()

			return nil, fmt.Errorf("migrate database: %w", err)
		}

		st = db
		closeFn = db.Close
	}

	return &App{
		Conf:      conf,
		L:         l,
		Bookings:  booking.New(l, st),
		Projector: schedule.NewProjector(l, st, schedule.Config{MaxWindowDays: conf.Schedule.MaxWindowDays}),
		Payments:  payment.New(l, st, payment.NewCalculator(conf.Rates())),
		close:     closeFn,
	}, nil
}

func OpenSQLite(conf *config.Config, l *logger.Logger) (*sqlite.DB, error) {
	db, err := sqlite.Open(sqlite.Config{L: l, Path: conf.Storage.Path, BusyTimeout: conf.Storage.BusyTimeout})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	return db, nil
}

func (a *App) Close() error {
	return a.close()
}

// Serve runs the HTTP API until SIGINT, SIGTERM or SIGHUP.
func (a *App) Serve(withSeed bool) error {
	ctx, cancel := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGHUP,
	)
	defer cancel()

	if a.Conf.Auth.JWTSecret == "" {
		return ErrNoJWTSecret
	}

	issuer, err := auth.NewIssuer(a.Conf.Auth.JWTSecret, a.Conf.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("init token issuer: %w", err)
	}

	if withSeed {
		if _, err := seed.Up(ctx, a.L, a.Bookings, calendar.Today(time.Now)); err != nil {
			return fmt.Errorf("seed demo schedule: %w", err)
		}
	}

	webConf := web.Conf{
		L:                 a.L,
		ServerLogger:      log.Default(),
		Host:              a.Conf.Server.Host,
		Port:              a.Conf.Server.Port,
		ReadHeaderTimeout: a.Conf.Server.ReadHeaderTimeout,
		LivenessEndpoint:  a.Conf.Server.LivenessEndpoint,
		WindowDays:        a.Conf.Schedule.WindowDays,
		Contributors:      a.Conf.Payroll.Contributors,
	}

	srv, err := web.New(ctx, webConf, web.Deps{
		Bookings:  a.Bookings,
		Projector: a.Projector,
		Payments:  a.Payments,
		Tokens:    issuer,
	})
	if err != nil {
		return fmt.Errorf("init http server: %w", err)
	}

	//nolint:contextcheck
	go func() {
		<-ctx.Done()

		ctx, cancel := context.WithTimeout(context.Background(), a.Conf.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Srv().Shutdown(ctx); err != nil {
			a.L.LogErrorf("Failed to stop http server: %v", err.Error())
		}
	}()

	a.L.LogInfo("Application is running on %v:%v...", webConf.Host, webConf.Port)

	if err := srv.Srv().ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		cancel()

		return fmt.Errorf("run http server: %w", err)
	}

	a.L.LogInfo("Application stopped gracefully")

	return nil
}
