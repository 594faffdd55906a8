package logger

import (
	"github.com/rollbar/rollbar-go"
)

// ReporterConfig configures remote error reporting.
type ReporterConfig struct {
	Token       string
	Environment string
	ServerHost  string
	CodeVersion string
}

var reportingEnabled bool

// ConfigureReporter enables Rollbar reporting when a token is present.
func ConfigureReporter(cfg ReporterConfig) {
	if cfg.Token == "" {
		rollbar.SetEnabled(false)
		reportingEnabled = false
		return
	}
	rollbar.SetToken(cfg.Token)
	rollbar.SetEnvironment(cfg.Environment)
	rollbar.SetServerHost(cfg.ServerHost)
	rollbar.SetCodeVersion(cfg.CodeVersion)
	rollbar.SetEnabled(true)
	reportingEnabled = true
}

// ReportError logs err at error level and forwards it to Rollbar when reporting is enabled.
// fields are attached to both the log line and the Rollbar item.
func ReportError(err error, msg string, fields map[string]interface{}) {
	event := defaultLogger.Error().Err(err)
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)

	if !reportingEnabled || err == nil {
		return
	}
	extras := map[string]interface{}{"message": msg}
	for k, v := range fields {
		extras[k] = v
	}
	rollbar.Error(err, extras)
}

// CloseReporter flushes queued Rollbar items.
func CloseReporter() {
	if reportingEnabled {
		rollbar.Wait()
	}
}
