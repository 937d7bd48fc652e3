package api

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/tphakala/tom-alerce/internal/datastore"
)

// MockDataStore implements datastore.Interface for testing
type MockDataStore struct {
	mock.Mock
}

var _ datastore.Interface = (*MockDataStore)(nil)

func (m *MockDataStore) Open() error  { return m.Called().Error(0) }
func (m *MockDataStore) Close() error { return m.Called().Error(0) }

func (m *MockDataStore) CreateTarget(ctx context.Context, target *datastore.Target) error {
	return m.Called(ctx, target).Error(0)
}

func (m *MockDataStore) GetTarget(ctx context.Context, id uint) (*datastore.Target, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*datastore.Target), args.Error(1)
}

func (m *MockDataStore) GetTargetByName(ctx context.Context, name string) (*datastore.Target, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*datastore.Target), args.Error(1)
}

func (m *MockDataStore) ListTargets(ctx context.Context, limit, offset int) ([]datastore.Target, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]datastore.Target), args.Error(1)
}

func (m *MockDataStore) AddTargetName(ctx context.Context, targetID uint, name string) (*datastore.TargetName, error) {
	args := m.Called(ctx, targetID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*datastore.TargetName), args.Error(1)
}

func (m *MockDataStore) CreateTargetList(ctx context.Context, name string) (*datastore.TargetList, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*datastore.TargetList), args.Error(1)
}

func (m *MockDataStore) AddTargetToList(ctx context.Context, listID, targetID uint) error {
	return m.Called(ctx, listID, targetID).Error(0)
}

func (m *MockDataStore) GetTargetList(ctx context.Context, id uint) (*datastore.TargetList, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*datastore.TargetList), args.Error(1)
}

func (m *MockDataStore) SaveQuery(ctx context.Context, query *datastore.BrokerQuery) error {
	return m.Called(ctx, query).Error(0)
}

func (m *MockDataStore) GetQuery(ctx context.Context, id uint) (*datastore.BrokerQuery, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*datastore.BrokerQuery), args.Error(1)
}

func (m *MockDataStore) ListQueries(ctx context.Context) ([]datastore.BrokerQuery, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]datastore.BrokerQuery), args.Error(1)
}

func (m *MockDataStore) MarkQueryRun(ctx context.Context, id uint, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}
