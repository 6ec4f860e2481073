package logger

import (
	"os"
	"path/filepath"

	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
)

// logrusLogger adapts a *logrus.Entry to the Logger interface.
type logrusLogger struct {
	entry *logrus.Entry
}

// NewLogrus creates a root Logger that writes structured output to stderr
// and, when logPath is non-empty, mirrors every entry to a rotation-free
// log file on disk via lfshook.
func NewLogrus(logPath string) Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)

	if logPath != "" {
		_ = os.MkdirAll(filepath.Dir(logPath), 0700)
		pathMap := lfshook.PathMap{
			logrus.DebugLevel: logPath,
			logrus.InfoLevel:  logPath,
			logrus.WarnLevel:  logPath,
			logrus.ErrorLevel: logPath,
			logrus.FatalLevel: logPath,
		}
		l.AddHook(lfshook.NewHook(pathMap, &logrus.JSONFormatter{}))
	}

	return &logrusLogger{entry: logrus.NewEntry(l)}
}

func (l *logrusLogger) SetToDebug() { l.entry.Logger.SetLevel(logrus.DebugLevel) }
func (l *logrusLogger) SetToInfo()  { l.entry.Logger.SetLevel(logrus.InfoLevel) }
func (l *logrusLogger) SetToError() { l.entry.Logger.SetLevel(logrus.ErrorLevel) }

func (l *logrusLogger) Module(ns string) Logger {
	return &logrusLogger{entry: l.entry.WithField("module", ns)}
}

func (l *logrusLogger) fields(keyValues []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(keyValues)/2)
	for i := 0; i+1 < len(keyValues); i += 2 {
		key, ok := keyValues[i].(string)
		if !ok {
			continue
		}
		f[key] = keyValues[i+1]
	}
	return f
}

func (l *logrusLogger) Debug(msg string, kv ...interface{}) { l.entry.WithFields(l.fields(kv)).Debug(msg) }
func (l *logrusLogger) Info(msg string, kv ...interface{})  { l.entry.WithFields(l.fields(kv)).Info(msg) }
func (l *logrusLogger) Warn(msg string, kv ...interface{})  { l.entry.WithFields(l.fields(kv)).Warn(msg) }
func (l *logrusLogger) Error(msg string, kv ...interface{}) { l.entry.WithFields(l.fields(kv)).Error(msg) }
func (l *logrusLogger) Fatal(msg string, kv ...interface{}) { l.entry.WithFields(l.fields(kv)).Fatal(msg) }
