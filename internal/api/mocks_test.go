package api

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/service"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// MockTaskService mocks the service.TaskService interface
type MockTaskService struct {
	mock.Mock
}

var _ service.TaskService = (*MockTaskService)(nil)

func (m *MockTaskService) Create(
	ctx context.Context,
	auth service.AuthContext,
	params service.CreateTaskParams,
) (*domain.Task, error) {
	args := m.Called(ctx, auth, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskService) Get(
	ctx context.Context,
	auth service.AuthContext,
	taskID uuid.UUID,
) (*domain.Task, error) {
	args := m.Called(ctx, auth, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskService) List(
	ctx context.Context,
	auth service.AuthContext,
	filter store.TaskFilter,
	sort store.TaskSort,
	page store.Page,
) ([]domain.Task, int64, error) {
	args := m.Called(ctx, auth, filter, sort, page)
	var tasks []domain.Task
	if args.Get(0) != nil {
		tasks = args.Get(0).([]domain.Task)
	}
	return tasks, args.Get(1).(int64), args.Error(2)
}

func (m *MockTaskService) UpdateStatus(
	ctx context.Context,
	auth service.AuthContext,
	taskID uuid.UUID,
	newStatus domain.TaskStatus,
) (*domain.Task, error) {
	args := m.Called(ctx, auth, taskID, newStatus)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskService) UpdateDetails(
	ctx context.Context,
	auth service.AuthContext,
	taskID uuid.UUID,
	params service.UpdateTaskParams,
) (*domain.Task, error) {
	args := m.Called(ctx, auth, taskID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskService) Delete(
	ctx context.Context,
	auth service.AuthContext,
	taskID uuid.UUID,
) error {
	args := m.Called(ctx, auth, taskID)
	return args.Error(0)
}

func (m *MockTaskService) AddComment(
	ctx context.Context,
	auth service.AuthContext,
	taskID uuid.UUID,
	body string,
) (*domain.Comment, error) {
	args := m.Called(ctx, auth, taskID, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Comment), args.Error(1)
}

// MockUserService mocks the service.UserService interface
type MockUserService struct {
	mock.Mock
}

var _ service.UserService = (*MockUserService)(nil)

func (m *MockUserService) Register(
	ctx context.Context,
	username, email, password string,
) (*domain.User, error) {
	args := m.Called(ctx, username, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserService) Authenticate(
	ctx context.Context,
	email, password string,
) (*domain.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserService) Get(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockSweeper mocks the SweepRunner interface
type MockSweeper struct {
	mock.Mock
}

var _ SweepRunner = (*MockSweeper)(nil)

func (m *MockSweeper) RunOnce(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
