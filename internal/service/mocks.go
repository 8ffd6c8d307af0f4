package service

import (
	"context"

	"github.com/matejak/teap/internal/directory"
	"github.com/matejak/teap/internal/groupware"
	"github.com/matejak/teap/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) CreateUser(ctx context.Context, uid, givenName, surname, password string) error {
	args := m.Called(ctx, uid, givenName, surname, password)
	return args.Error(0)
}

func (m *MockDirectory) GetUser(ctx context.Context, uid string) (*model.User, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockDirectory) DeleteUser(ctx context.Context, uid string) error {
	args := m.Called(ctx, uid)
	return args.Error(0)
}

func (m *MockDirectory) SetUserPassword(ctx context.Context, uid, password string) error {
	args := m.Called(ctx, uid, password)
	return args.Error(0)
}

func (m *MockDirectory) GetUserTeams(ctx context.Context, uid string) ([]*model.Team, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Team), args.Error(1)
}

func (m *MockDirectory) CreateFranchise(ctx context.Context, machineName, displayName string) error {
	args := m.Called(ctx, machineName, displayName)
	return args.Error(0)
}

func (m *MockDirectory) GetFranchises(ctx context.Context) ([]*model.Franchise, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Franchise), args.Error(1)
}

func (m *MockDirectory) CreateDivision(ctx context.Context, machineName, displayName string) error {
	args := m.Called(ctx, machineName, displayName)
	return args.Error(0)
}

func (m *MockDirectory) GetDivisions(ctx context.Context) ([]*model.Division, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Division), args.Error(1)
}

func (m *MockDirectory) CreateTeam(ctx context.Context, machineName, displayName string) error {
	args := m.Called(ctx, machineName, displayName)
	return args.Error(0)
}

func (m *MockDirectory) GetTeam(ctx context.Context, machineName string) (*model.Team, error) {
	args := m.Called(ctx, machineName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Team), args.Error(1)
}

func (m *MockDirectory) GetTeamOwningPair(ctx context.Context, team string) (*directory.OwningPair, error) {
	args := m.Called(ctx, team)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.OwningPair), args.Error(1)
}

func (m *MockDirectory) AddMembership(ctx context.Context, uid string, group directory.GroupID) error {
	args := m.Called(ctx, uid, group)
	return args.Error(0)
}

type MockFolders struct {
	mock.Mock
}

func (m *MockFolders) CreateFolder(ctx context.Context, mountpoint string) (int, error) {
	args := m.Called(ctx, mountpoint)
	return args.Int(0), args.Error(1)
}

func (m *MockFolders) FindFolder(ctx context.Context, mountpoint string) (int, bool, error) {
	args := m.Called(ctx, mountpoint)
	return args.Int(0), args.Bool(1), args.Error(2)
}

func (m *MockFolders) GrantAccess(ctx context.Context, folderID int, group string) error {
	args := m.Called(ctx, folderID, group)
	return args.Error(0)
}

func (m *MockFolders) SetPermission(ctx context.Context, folderID int, group string, permissions groupware.Permission) error {
	args := m.Called(ctx, folderID, group, permissions)
	return args.Error(0)
}

type MockDivisionSource struct {
	mock.Mock
}

func (m *MockDivisionSource) Divisions() (map[string]string, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}
