package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/staff"
)

type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

// NewRollbarLogger prints to std and reports to Rollbar once enabled.
func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(false)
	return &RollbarLogger{std: std}
}

// Enable turns Rollbar reporting on or off; it is never enabled without a token.
func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled && rollbar.Token() != "")
}

// expected fmt: msg | error, map[string]interface{}, staff.Account
func (l RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	var accSet bool
	newArgs := make([]interface{}, 0, len(args)+1)
	newArgs = append(newArgs, msg)
	for _, arg := range args {
		// set logged in staff member
		if acc, ok := arg.(staff.Account); ok {
			if !accSet { // only set one Account
				rollbar.SetPerson(acc.ID, acc.Name, acc.Email)
				accSet = true
			}
		} else {
			newArgs = append(newArgs, arg)
		}
	}
	if !accSet {
		rollbar.ClearPerson()
	}
	return newArgs
}

func (l RollbarLogger) print(level, msg string, args []interface{}) {
	l.std.Println(level + ": " + msg)
	for _, arg := range args {
		if acc, ok := arg.(staff.Account); ok {
			l.std.Printf("  by: %s <%s>\n", acc.Name, acc.Email)
			continue
		}
		l.std.Printf("  %+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rollbar.Debug(l.prepare(msg, args)...)
	l.print("DEBUG", msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rollbar.Info(l.prepare(msg, args)...)
	l.print("INFO", msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rollbar.Warning(l.prepare(msg, args)...)
	l.print("WARN", msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rollbar.Error(l.prepare(msg, args)...)
	l.print("ERROR", msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rollbar.Critical(l.prepare(msg, args)...)
	l.print("FATAL", msg, args)
	l.std.Fatal(msg)
}
