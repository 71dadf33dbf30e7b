package config

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/rollbar/rollbar-go"
	rollbarerrors "github.com/rollbar/rollbar-go/errors"
	"github.com/sirupsen/logrus"
)

var (
	logrusInstance *logrus.Logger
	logrusOnce     sync.Once
)

func GetLogrusInstance() *logrus.Logger {
	logrusOnce.Do(func() {
		logrusInstance = logrus.New()
		logrusInstance.SetFormatter(&logrus.JSONFormatter{})
		if token := GetRollbarToken(); token != "" {
			rollbar.SetToken(token)
			rollbar.SetEnvironment(GetEnv())
			rollbar.SetServerHost(GetFiberHttpHost())
			rollbar.SetStackTracer(rollbarerrors.StackTracer)
			logrusInstance.AddHook(&rollbarHook{})
		}
	})
	return logrusInstance
}

// rollbarHook forwards error and worse entries to Rollbar.
type rollbarHook struct{}

func (h *rollbarHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel}
}

func (h *rollbarHook) Fire(entry *logrus.Entry) error {
	extras := make(map[string]interface{}, len(entry.Data))
	for k, v := range entry.Data {
		extras[k] = v
	}

	if err, ok := entry.Data[logrus.ErrorKey].(error); ok {
		rollbar.ErrorWithExtras(levelFor(entry.Level), err, extras)
		return nil
	}
	rollbar.MessageWithExtras(levelFor(entry.Level), entry.Message, extras)
	return nil
}

func levelFor(l logrus.Level) string {
	if l == logrus.ErrorLevel {
		return rollbar.ERR
	}
	return rollbar.CRIT
}

const (
	green  = "\033[32m" // Green for 200 OK
	yellow = "\033[33m" // Yellow for 300 series
	red    = "\033[31m" // Red for 400 and 500 series
	reset  = "\033[0m"  // Reset to default color
)

func PrintLogInfo(username *string, statusCode int, functionName string) {
	var logColor string

	switch {
	case statusCode == fiber.StatusOK, statusCode == fiber.StatusCreated:
		logColor = green
	case statusCode == fiber.StatusAccepted, statusCode >= 300 && statusCode < 400:
		logColor = yellow
	case statusCode >= 400:
		logColor = red
	default:
		logColor = reset
	}

	user := "Unknown"
	if username != nil {
		user = *username
	}

	GetLogrusInstance().WithFields(logrus.Fields{
		"user":    user,
		"handler": functionName,
		"status":  statusCode,
	}).Info(fmt.Sprintf("User: %s, (%s) => Status: %s[%d] - %s%s", user, functionName, logColor, statusCode, http.StatusText(statusCode), reset))
}
