package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/actionunitmanager/backend/core"
	"github.com/actionunitmanager/backend/core/attendance"
	"github.com/actionunitmanager/backend/core/book"
	"github.com/actionunitmanager/backend/core/church"
	"github.com/actionunitmanager/backend/core/class"
	"github.com/actionunitmanager/backend/core/offering"
	"github.com/actionunitmanager/backend/core/subscription"
	"github.com/actionunitmanager/backend/core/user"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool
		Logger         core.Logger

		UserSvc         user.ServiceInterface
		ChurchSvc       *church.Service
		SubscriptionSvc *subscription.Service
		ClassSvc        *class.Service
		AttendanceSvc   *attendance.Service
		OfferingSvc     *offering.Service
		BookSvc         *book.Service

		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
		// ShutdownSignal is closed when an unrecoverable error asks for a
		// graceful shutdown.
		ShutdownSignal() <-chan struct{}
	}

	server struct {
		opts     *Options
		app      *echo.Echo
		shutdown chan struct{}
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts:     opts,
		app:      echo.New(),
		shutdown: make(chan struct{}),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.signalShutdown)
	s.app.Debug = core.Conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)

	api := s.app.Group("/api")
	jwt := middleware.JWTWithConfig(appJWTConfig)
	gate := subscriptionGateMiddleware(s.opts.SubscriptionSvc.GetByChurchID)

	// all authed endpoints sit behind the billing gate
	ag := api.Group("", jwt, gate)

	registerAuthAPI(api, ag, s.opts)
	registerClassAPI(ag, s.opts)
	registerTeacherAPI(ag, s.opts)
	registerAttendanceAPI(ag, s.opts)
	registerOfferingAPI(ag, s.opts)
	registerBookAPI(ag, s.opts)
	registerOfficerAPI(ag, s.opts)
	registerReportAPI(ag, s.opts)
	registerSubscriptionAPI(ag, s.opts)
}

func (s *server) signalShutdown() {
	select {
	case <-s.shutdown:
	default:
		close(s.shutdown)
	}
}

func (s *server) ShutdownSignal() <-chan struct{} { return s.shutdown }

func (s *server) Start() error {
	return s.app.Start(s.opts.Address)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+core.Conf.AppName+" API!")
}
