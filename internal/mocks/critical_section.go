package mocks

import (
	"reflect"

	"go.uber.org/mock/gomock"
)

// MockCriticalSection is a mock of the CriticalSection interface.
type MockCriticalSection struct {
	ctrl     *gomock.Controller
	recorder *MockCriticalSectionMockRecorder
}

// MockCriticalSectionMockRecorder is the mock recorder for MockCriticalSection.
type MockCriticalSectionMockRecorder struct {
	mock *MockCriticalSection
}

// NewMockCriticalSection creates a new mock instance.
func NewMockCriticalSection(ctrl *gomock.Controller) *MockCriticalSection {
	m := &MockCriticalSection{ctrl: ctrl}
	m.recorder = &MockCriticalSectionMockRecorder{m}

	return m
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockCriticalSection) EXPECT() *MockCriticalSectionMockRecorder {
	return m.recorder
}

func (m *MockCriticalSection) Enter() {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "Enter")
}

func (mr *MockCriticalSectionMockRecorder) Enter() *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Enter", reflect.TypeOf((*MockCriticalSection)(nil).Enter))
}

func (m *MockCriticalSection) Exit() {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "Exit")
}

func (mr *MockCriticalSectionMockRecorder) Exit() *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Exit", reflect.TypeOf((*MockCriticalSection)(nil).Exit))
}
