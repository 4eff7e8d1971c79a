// Package mocks provides gomock-style test doubles for dmheap's Logger and
// CriticalSection interfaces, hand-authored in the shape mockgen would
// produce (NewMockX(ctrl), EXPECT()).
package mocks

import (
	"reflect"

	"go.uber.org/mock/gomock"
)

// MockLogger is a mock of the Logger interface.
type MockLogger struct {
	ctrl     *gomock.Controller
	recorder *MockLoggerMockRecorder
}

// MockLoggerMockRecorder is the mock recorder for MockLogger.
type MockLoggerMockRecorder struct {
	mock *MockLogger
}

// NewMockLogger creates a new mock instance.
func NewMockLogger(ctrl *gomock.Controller) *MockLogger {
	m := &MockLogger{ctrl: ctrl}
	m.recorder = &MockLoggerMockRecorder{m}

	return m
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockLogger) EXPECT() *MockLoggerMockRecorder {
	return m.recorder
}

func (m *MockLogger) Infof(format string, args ...any) {
	m.ctrl.T.Helper()

	varargs := []any{format}
	for _, a := range args {
		varargs = append(varargs, a)
	}

	m.ctrl.Call(m, "Infof", varargs...)
}

func (mr *MockLoggerMockRecorder) Infof(format any, args ...any) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	varargs := append([]any{format}, args...)

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Infof", reflect.TypeOf((*MockLogger)(nil).Infof), varargs...)
}

func (m *MockLogger) Warnf(format string, args ...any) {
	m.ctrl.T.Helper()

	varargs := []any{format}
	for _, a := range args {
		varargs = append(varargs, a)
	}

	m.ctrl.Call(m, "Warnf", varargs...)
}

func (mr *MockLoggerMockRecorder) Warnf(format any, args ...any) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	varargs := append([]any{format}, args...)

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Warnf", reflect.TypeOf((*MockLogger)(nil).Warnf), varargs...)
}

func (m *MockLogger) Errorf(format string, args ...any) {
	m.ctrl.T.Helper()

	varargs := []any{format}
	for _, a := range args {
		varargs = append(varargs, a)
	}

	m.ctrl.Call(m, "Errorf", varargs...)
}

func (mr *MockLoggerMockRecorder) Errorf(format any, args ...any) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	varargs := append([]any{format}, args...)

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Errorf", reflect.TypeOf((*MockLogger)(nil).Errorf), varargs...)
}
