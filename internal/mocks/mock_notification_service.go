package mocks

import "sync"

// SentMessage records one delivery made through the mock.
type SentMessage struct {
	To      string
	Subject string
	Body    string
}

// MockNotificationService implements domain.NotificationService for
// testing. It records every message so tests can extract OTP codes the
// way a patient would from their inbox.
type MockNotificationService struct {
	SendEmailFunc func(to, subject, body string) error
	SendSMSFunc   func(to, message string) error

	mu     sync.Mutex
	Emails []SentMessage
	SMS    []SentMessage
}

// NewMockNotificationService creates a new MockNotificationService
func NewMockNotificationService() *MockNotificationService {
	return &MockNotificationService{}
}

// SendEmail records the email and delegates to SendEmailFunc when set.
func (m *MockNotificationService) SendEmail(to, subject, body string) error {
	m.mu.Lock()
	m.Emails = append(m.Emails, SentMessage{To: to, Subject: subject, Body: body})
	m.mu.Unlock()

	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(to, subject, body)
	}
	return nil
}

// SendSMS records the message and delegates to SendSMSFunc when set.
func (m *MockNotificationService) SendSMS(to, message string) error {
	m.mu.Lock()
	m.SMS = append(m.SMS, SentMessage{To: to, Body: message})
	m.mu.Unlock()

	if m.SendSMSFunc != nil {
		return m.SendSMSFunc(to, message)
	}
	return nil
}

// LastEmail returns the most recently recorded email, or nil.
func (m *MockNotificationService) LastEmail() *SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Emails) == 0 {
		return nil
	}
	last := m.Emails[len(m.Emails)-1]
	return &last
}
