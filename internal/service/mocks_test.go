package service

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"authcodelab/internal/mail"
	"authcodelab/internal/risk"
)

// recordingMailer captures queued messages.
type recordingMailer struct {
	mu   sync.Mutex
	msgs []mail.Message
}

func (m *recordingMailer) Enqueue(msg mail.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, msg)
}

func (m *recordingMailer) last() mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.msgs) == 0 {
		return mail.Message{}
	}
	return m.msgs[len(m.msgs)-1]
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.msgs)
}

// MockAnalyzer is a mock implementation of risk.Analyzer.
type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) Analyze(ctx context.Context, req risk.Request) risk.Assessment {
	args := m.Called(ctx, req)
	return args.Get(0).(risk.Assessment)
}

// MockChallengeStore is a mock implementation of auth.ChallengeStoreInterface.
type MockChallengeStore struct {
	mock.Mock
}

func (m *MockChallengeStore) Open(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockChallengeStore) Consume(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}
