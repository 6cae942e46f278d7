package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/idempotency"
	"github.com/xavierca1/ligue-leads/internal/infra/mail"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
	"github.com/xavierca1/ligue-leads/internal/infra/ratelimit"
	"github.com/xavierca1/ligue-leads/internal/infra/sms"
)

type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

func (m *MockLeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) UpdateAssignment(ctx context.Context, leadID, orgID, userID string, at time.Time) error {
	args := m.Called(ctx, leadID, orgID, userID, at)
	return args.Error(0)
}

func (m *MockLeadRepository) UpdateNotifiedAt(ctx context.Context, leadID, field string, at time.Time) error {
	args := m.Called(ctx, leadID, field, at)
	return args.Error(0)
}

type MockRateLimiter struct {
	mock.Mock
}

func (m *MockRateLimiter) Check(ctx context.Context, identity string) (ratelimit.Result, error) {
	args := m.Called(ctx, identity)
	return args.Get(0).(ratelimit.Result), args.Error(1)
}

type MockIdempotencyResolver struct {
	mock.Mock
}

func (m *MockIdempotencyResolver) Claim(ctx context.Context, key, leadID, status string) (idempotency.Claim, error) {
	args := m.Called(ctx, key, leadID, status)
	return args.Get(0).(idempotency.Claim), args.Error(1)
}

func (m *MockIdempotencyResolver) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishLeadCreated(ctx context.Context, event queue.LeadEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockLeadScorer struct {
	mock.Mock
}

func (m *MockLeadScorer) Score(ctx context.Context, lead *entity.Lead) (int, error) {
	args := m.Called(ctx, lead)
	return args.Int(0), args.Error(1)
}

type MockOrgRepository struct {
	mock.Mock
}

func (m *MockOrgRepository) FindByID(ctx context.Context, id string) (*entity.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Organization), args.Error(1)
}

func (m *MockOrgRepository) ListMembers(ctx context.Context, orgID string) ([]entity.Membership, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Membership), args.Error(1)
}

type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) Create(ctx context.Context, attempt *entity.NotificationAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) ListByLead(ctx context.Context, leadID string) ([]entity.NotificationAttempt, error) {
	args := m.Called(ctx, leadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.NotificationAttempt), args.Error(1)
}

func (m *MockAttemptRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendLeadNotification(to, subject string, data mail.LeadNotificationData) mail.SendResult {
	args := m.Called(to, subject, data)
	return args.Get(0).(mail.SendResult)
}

type MockSmsSender struct {
	mock.Mock
}

func (m *MockSmsSender) Send(ctx context.Context, phone, text string) sms.SendResult {
	args := m.Called(ctx, phone, text)
	return args.Get(0).(sms.SendResult)
}

type MockInternalRecipients struct {
	mock.Mock
}

func (m *MockInternalRecipients) Recipients() ([]entity.Membership, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Membership), args.Error(1)
}
