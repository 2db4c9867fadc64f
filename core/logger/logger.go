package logger

import (
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Event names, stored under the "event" key.
const (
	eventRunCommand        = "run_command"
	eventUnknownCommand    = "unknown_command"
	eventInvalidInvocation = "invalid_invocation"
	eventProcessExit       = "process_exit"
	eventSignalSent        = "signal_sent"
	eventTrapFired         = "trap_fired"
	eventCoprocStarted     = "coproc_started"
	eventWatchTriggered    = "watch_triggered"
)

// Logger captures process lifecycle events.
type Logger struct {
	z *zap.Logger
}

// NewJSONLinesLogger creates a Logger that exports events in newline
// delimited JSON object format.
func NewJSONLinesLogger(w io.Writer) *Logger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.MessageKey = "event"

	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.AddSync(w), zapcore.InfoLevel)
	return &Logger{z: zap.New(core)}
}

// Nop creates a Logger that discards everything.
func Nop() *Logger {
	return &Logger{z: zap.NewNop()}
}

// NewSession creates a logger with an attached session ID.
func (l *Logger) NewSession() *SessionLogger {
	id := uuid.New().String()
	return &SessionLogger{z: l.z.With(zap.String("session_id", id)), id: id}
}

// Sync flushes buffered events.
func (l *Logger) Sync() error {
	return l.z.Sync()
}

// SessionLogger logs events with a shared session ID.
type SessionLogger struct {
	z  *zap.Logger
	id string
}

// ID returns the session ID attached to every event.
func (l *SessionLogger) ID() string {
	return l.id
}

// RunCommand records that an external command was started.
func (l *SessionLogger) RunCommand(path string, argv []string, pid int) {
	l.z.Info(eventRunCommand, zap.String("path", path), zap.Strings("argv", argv), zap.Int("pid", pid))
}

// UnknownCommand records a command that could not be resolved or started.
func (l *SessionLogger) UnknownCommand(argv []string, err error) {
	l.z.Info(eventUnknownCommand, zap.Strings("argv", argv), zap.Error(err))
}

// InvalidInvocation records a builtin called with bad arguments.
func (l *SessionLogger) InvalidInvocation(argv []string, err error) {
	l.z.Info(eventInvalidInvocation, zap.Strings("argv", argv), zap.Error(err))
}

// ProcessExit records the translated exit code of a child.
func (l *SessionLogger) ProcessExit(pid, code int) {
	l.z.Info(eventProcessExit, zap.Int("pid", pid), zap.Int("code", code))
}

// SignalSent records a signal delivery attempt.
func (l *SessionLogger) SignalSent(pid int, signal string, err error) {
	if err != nil {
		l.z.Warn(eventSignalSent, zap.Int("pid", pid), zap.String("signal", signal), zap.Error(err))
		return
	}
	l.z.Info(eventSignalSent, zap.Int("pid", pid), zap.String("signal", signal))
}

// TrapFired records a trap action being run.
func (l *SessionLogger) TrapFired(signal, action string) {
	l.z.Info(eventTrapFired, zap.String("signal", signal), zap.String("action", action))
}

// CoprocStarted records a new coprocess and its descriptors.
func (l *SessionLogger) CoprocStarted(name string, pid, readFd, writeFd int) {
	l.z.Info(eventCoprocStarted,
		zap.String("name", name),
		zap.Int("pid", pid),
		zap.Int("read_fd", readFd),
		zap.Int("write_fd", writeFd))
}

// WatchTriggered records a watched path change and the command's exit code.
func (l *SessionLogger) WatchTriggered(path string, code int) {
	l.z.Info(eventWatchTriggered, zap.String("path", path), zap.Int("code", code))
}
