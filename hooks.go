package dmheap

import (
	"log"
	"sync"
)

// Logger is the printf-style sink every public Context method logs
// through. Implementations must tolerate being called from inside a
// critical section; in particular, they must not themselves call back into
// a Context.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// stdLogger wraps the standard library's log package with bracketed
// severity tags.
type stdLogger struct {
	l *log.Logger
}

// NewStdLogger returns a Logger that writes through the standard library's
// default logger with "[dmheap] [LEVEL]" prefixes.
func NewStdLogger() Logger {
	return &stdLogger{l: log.Default()}
}

func (s *stdLogger) Infof(format string, args ...any) {
	s.l.Printf("[dmheap] [INFO] "+format, args...)
}

func (s *stdLogger) Warnf(format string, args ...any) {
	s.l.Printf("[dmheap] [WARN] "+format, args...)
}

func (s *stdLogger) Errorf(format string, args ...any) {
	s.l.Printf("[dmheap] [ERROR] "+format, args...)
}

// nopLogger discards everything. Used as the default in tests so failures
// aren't buried in allocator chatter.
type nopLogger struct{}

// NewNopLogger returns a Logger that discards every message.
func NewNopLogger() Logger { return nopLogger{} }

func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// CriticalSection is the abstract mutual-exclusion boundary bracketing
// every public operation. The host supplies its own implementation
// (interrupt disable, global spinlock, scheduler suspend); dmheap makes no
// assumption beyond "within Enter/Exit, no other caller touches the heap
// context."
//
// Implementations must be reentrant-safe to the host's own satisfaction and
// must never call back into the Context they guard.
type CriticalSection interface {
	Enter()
	Exit()
}

// mutexCriticalSection is the default CriticalSection: a plain sync.Mutex.
type mutexCriticalSection struct {
	mu sync.Mutex
}

// NewMutexCriticalSection returns a CriticalSection backed by a sync.Mutex.
func NewMutexCriticalSection() CriticalSection {
	return &mutexCriticalSection{}
}

func (m *mutexCriticalSection) Enter() { m.mu.Lock() }
func (m *mutexCriticalSection) Exit()  { m.mu.Unlock() }
