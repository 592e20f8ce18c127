package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/feeschedule"
	"github.com/trezcool/ecolage/core/payment"
	"github.com/trezcool/ecolage/core/school"
	"github.com/trezcool/ecolage/core/setting"
	"github.com/trezcool/ecolage/core/staff"
)

// ServerDeps holds everything the API handlers need.
type ServerDeps struct {
	Conf       *core.Config
	Logger     core.Logger
	Students   school.Repository
	Schedules  feeschedule.Repository
	Settings   *setting.Repository
	Resolver   *feeschedule.Resolver
	Payments   payment.Repository
	Settlement *payment.Settlement
	Engine     *payment.Engine
	StaffSvc   *staff.Service
	MailSvc    core.EmailService
	Validate   *validator.Validate
	Translator ut.Translator
}

type Server struct {
	*http.Server
	deps     ServerDeps
	app      *echo.Echo
	auth     *jwtAuth
	errors   chan error
	shutdown chan os.Signal
}

func NewServer(deps ServerDeps) *Server {
	vala.BeginValidation().Validate(
		vala.IsNotNil(deps.Conf, "Conf"),
		vala.IsNotNil(deps.Logger, "Logger"),
		vala.IsNotNil(deps.Students, "Students"),
		vala.IsNotNil(deps.Schedules, "Schedules"),
		vala.IsNotNil(deps.Settings, "Settings"),
		vala.IsNotNil(deps.Resolver, "Resolver"),
		vala.IsNotNil(deps.Payments, "Payments"),
		vala.IsNotNil(deps.Settlement, "Settlement"),
		vala.IsNotNil(deps.Engine, "Engine"),
		vala.IsNotNil(deps.StaffSvc, "StaffSvc"),
		vala.IsNotNil(deps.MailSvc, "MailSvc"),
		vala.IsNotNil(deps.Validate, "Validate"),
		vala.IsNotNil(deps.Translator, "Translator"),
	).CheckAndPanic()

	s := &Server{
		deps:     deps,
		app:      echo.New(),
		auth:     newJWTAuth(deps.Conf),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.Server = &http.Server{
		Addr:    deps.Conf.Server.Address,
		Handler: s.app,
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown)
	s.app.Debug = conf.Debug && !conf.TestMode

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	jwt := s.auth.middleware()

	registerStaffAPI(v1, jwt, s.auth, s.deps)
	registerSchoolAPI(v1, jwt, s.deps)
	registerFeeScheduleAPI(v1, jwt, s.deps)
	registerPaymentAPI(v1, jwt, s.deps)
	registerSettingAPI(v1, jwt, s.deps)
}

// Start listens until the server is shut down; listening errors are sent to Errors.
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks the process to shut down gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signaled
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.Server.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Bienvenue sur l'API "+s.deps.Conf.AppName+"!")
}
