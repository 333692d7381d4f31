package usecase_test

import (
	"context"
	"mime/multipart"
	"sync"

	"omnicast/domain/model"

	"github.com/stretchr/testify/mock"
)

type MockCredentialIssuer struct {
	mock.Mock
}

func (m *MockCredentialIssuer) Issue(ctx context.Context, platformName string) (*model.PlatformCredentials, error) {
	args := m.Called(ctx, platformName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PlatformCredentials), args.Error(1)
}

type MockVideoStore struct {
	mock.Mock
}

func (m *MockVideoStore) Check(file *multipart.FileHeader) error {
	return m.Called(file).Error(0)
}

func (m *MockVideoStore) Save(file *multipart.FileHeader) (*model.StoredVideo, error) {
	args := m.Called(file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StoredVideo), args.Error(1)
}

func (m *MockVideoStore) Remove(fileName string) error {
	return m.Called(fileName).Error(0)
}

type MockFanOut struct {
	mock.Mock
}

func (m *MockFanOut) Start(jobs []model.DeliveryJob) int {
	return m.Called(jobs).Int(0)
}

func (m *MockFanOut) Cancel(uploadID int64) int {
	return m.Called(uploadID).Int(0)
}

// recordingObserver keeps every event it sees.
type recordingObserver struct {
	mu     sync.Mutex
	events []model.DeliveryEvent
}

func (r *recordingObserver) Name() string { return "recorder" }

func (r *recordingObserver) Observe(ctx context.Context, event model.DeliveryEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingObserver) snapshot() []model.DeliveryEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.DeliveryEvent(nil), r.events...)
}
