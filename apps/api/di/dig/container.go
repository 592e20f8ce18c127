package dig_container

import (
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/ecolage/apps/api/echo"
	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/feeschedule"
	"github.com/trezcool/ecolage/core/payment"
	"github.com/trezcool/ecolage/core/school"
	"github.com/trezcool/ecolage/core/setting"
	"github.com/trezcool/ecolage/core/staff"
	emailsvc "github.com/trezcool/ecolage/services/email"
	logsvc "github.com/trezcool/ecolage/services/logger"
	"github.com/trezcool/ecolage/storage/database"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// StoreCloser releases the record store.
type StoreCloser func() error

type serverParams struct {
	dig.In

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

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newStore(conf *core.Config, loggerParam DBLoggerParam) (core.Store, StoreCloser) {
	store, closeFn, err := database.OpenStore(conf)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up record store: %v", err), err)
	}
	loggerParam.Logger.Info(fmt.Sprintf("record store ready : engine %q", conf.Database.Engine))
	return store, closeFn
}

func newValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	payment.InitValidators(validate, translator)
	staff.InitValidators(validate, translator)
	return validate, translator
}

func newResolver(students school.Repository, schedules feeschedule.Repository, settings *setting.Repository) *feeschedule.Resolver {
	return feeschedule.NewResolver(students, schedules, settings)
}

func newSettlement(payments payment.Repository, resolver *feeschedule.Resolver) *payment.Settlement {
	return payment.NewSettlement(payments, resolver)
}

func newEngine(store core.Store, resolver *feeschedule.Resolver, students school.Repository, logger core.Logger) *payment.Engine {
	return payment.NewEngine(store, resolver, students, logger)
}

func newStaffService(store core.Store) *staff.Service {
	return staff.NewService(staff.NewRepository(store))
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:       p.Conf,
		Logger:     p.Logger,
		Students:   p.Students,
		Schedules:  p.Schedules,
		Settings:   p.Settings,
		Resolver:   p.Resolver,
		Payments:   p.Payments,
		Settlement: p.Settlement,
		Engine:     p.Engine,
		StaffSvc:   p.StaffSvc,
		MailSvc:    p.MailSvc,
		Validate:   p.Validate,
		Translator: p.Translator,
	})
}

// New returns a new dependency injection dig.Container
func New(newConfig func() *core.Config) *dig.Container {
	c := dig.New()

	must(c.Provide(newConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStore))
	must(c.Provide(emailsvc.New))
	must(c.Provide(newValidator))
	must(c.Provide(school.NewRepository))
	must(c.Provide(feeschedule.NewRepository))
	must(c.Provide(setting.NewRepository))
	must(c.Provide(payment.NewRepository))
	must(c.Provide(newResolver))
	must(c.Provide(newSettlement))
	must(c.Provide(newEngine))
	must(c.Provide(newStaffService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
