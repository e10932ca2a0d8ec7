package logger

import (
	"fmt"
	"os"
	"sync"
	"time"

	"raffle-panel/config"

	"github.com/op/go-logging"
)

var (
	logger *logging.Logger

	// Every connection goroutine and cron job logs; the buffer is shared.
	bufferMu  sync.Mutex
	logBuffer []*logEntry
)

const bufferSize = 10240

type logEntry struct {
	time  time.Time
	level logging.Level
	log   string
}

func init() {
	InitLogger(logging.INFO)
}

func InitLogger(level logging.Level) {
	newLogger := logging.MustGetLogger(config.GetName())
	var backend logging.Backend
	var format logging.Formatter

	backend = logging.NewLogBackend(os.Stderr, "", 0)
	if config.IsDebug() {
		format = logging.MustStringFormatter(`%{time:2006/01/02 15:04:05} %{level} - %{module}:%{shortfile} - %{message}`)
	} else {
		format = logging.MustStringFormatter(`%{time:2006/01/02 15:04:05} %{level} - %{message}`)
	}

	backendFormatter := logging.NewBackendFormatter(backend, format)
	backendLeveled := logging.AddModuleLevel(backendFormatter)
	backendLeveled.SetLevel(level, config.GetName())
	newLogger.SetBackend(backendLeveled)

	logger = newLogger
}

func Debug(args ...any) {
	logger.Debug(args...)
	addToBuffer(logging.DEBUG, fmt.Sprint(args...))
}

func Debugf(format string, args ...any) {
	logger.Debugf(format, args...)
	addToBuffer(logging.DEBUG, fmt.Sprintf(format, args...))
}

func Info(args ...any) {
	logger.Info(args...)
	addToBuffer(logging.INFO, fmt.Sprint(args...))
}

func Infof(format string, args ...any) {
	logger.Infof(format, args...)
	addToBuffer(logging.INFO, fmt.Sprintf(format, args...))
}

func Warning(args ...any) {
	logger.Warning(args...)
	addToBuffer(logging.WARNING, fmt.Sprint(args...))
}

func Warningf(format string, args ...any) {
	logger.Warningf(format, args...)
	addToBuffer(logging.WARNING, fmt.Sprintf(format, args...))
}

func Error(args ...any) {
	logger.Error(args...)
	addToBuffer(logging.ERROR, fmt.Sprint(args...))
}

func Errorf(format string, args ...any) {
	logger.Errorf(format, args...)
	addToBuffer(logging.ERROR, fmt.Sprintf(format, args...))
}

func addToBuffer(level logging.Level, newLog string) {
	t := time.Now()
	bufferMu.Lock()
	defer bufferMu.Unlock()

	if len(logBuffer) >= bufferSize {
		logBuffer = logBuffer[1:]
	}

	logBuffer = append(logBuffer, &logEntry{
		time:  t,
		level: level,
		log:   newLog,
	})
}

// GetLogs returns up to count buffered entries at or below the given level,
// oldest first.
func GetLogs(count int, level string) []string {
	var logs []string
	logLevel, err := logging.LogLevel(level)
	if err != nil {
		logLevel = logging.INFO
	}

	bufferMu.Lock()
	defer bufferMu.Unlock()

	for i := len(logBuffer) - 1; i >= 0 && len(logs) < count; i-- {
		if logBuffer[i].level <= logLevel {
			logs = append(logs, fmt.Sprintf("%s %s - %s",
				logBuffer[i].time.Format("2006/01/02 15:04:05"),
				logBuffer[i].level.String(), logBuffer[i].log))
		}
	}

	for i, j := 0, len(logs)-1; i < j; i, j = i+1, j-1 {
		logs[i], logs[j] = logs[j], logs[i]
	}
	return logs
}
