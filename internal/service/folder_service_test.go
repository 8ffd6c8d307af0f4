package service

import (
	"context"
	"errors"
	"testing"

	"github.com/matejak/teap/internal/groupware"
	"github.com/matejak/teap/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFolderService_CreateFranchiseFolder(t *testing.T) {
	tests := []struct {
		name          string
		franchise     string
		setupMocks    func(*MockFolders)
		expectedError bool
		errorCode     ErrorCode
	}{
		{
			name:      "provisions under an existing container",
			franchise: "east",
			setupMocks: func(f *MockFolders) {
				f.On("FindFolder", mock.Anything, "Franchises").Return(1, true, nil)
				f.On("FindFolder", mock.Anything, "Franchises/east").Return(0, false, nil)
				f.On("CreateFolder", mock.Anything, "Franchises/east").Return(5, nil)
				f.On("GrantAccess", mock.Anything, 5, "east").Return(nil)
				f.On("GrantAccess", mock.Anything, 5, model.TeamEverybodyMachineName).Return(nil)
				f.On("SetPermission", mock.Anything, 5, model.TeamEverybodyMachineName, groupware.PermissionRead).Return(nil)
			},
		},
		{
			name:      "creates the container on first use",
			franchise: "east",
			setupMocks: func(f *MockFolders) {
				f.On("FindFolder", mock.Anything, "Franchises").Return(0, false, nil)
				f.On("CreateFolder", mock.Anything, "Franchises").Return(1, nil)
				f.On("GrantAccess", mock.Anything, 1, model.TeamEverybodyMachineName).Return(nil)
				f.On("SetPermission", mock.Anything, 1, model.TeamEverybodyMachineName, groupware.PermissionRead).Return(nil)
				f.On("FindFolder", mock.Anything, "Franchises/east").Return(0, false, nil)
				f.On("CreateFolder", mock.Anything, "Franchises/east").Return(5, nil)
				f.On("GrantAccess", mock.Anything, 5, "east").Return(nil)
				f.On("GrantAccess", mock.Anything, 5, model.TeamEverybodyMachineName).Return(nil)
				f.On("SetPermission", mock.Anything, 5, model.TeamEverybodyMachineName, groupware.PermissionRead).Return(nil)
			},
		},
		{
			name:      "re-run reuses the existing folder and re-issues grants",
			franchise: "east",
			setupMocks: func(f *MockFolders) {
				f.On("FindFolder", mock.Anything, "Franchises").Return(1, true, nil)
				f.On("FindFolder", mock.Anything, "Franchises/east").Return(5, true, nil)
				f.On("GrantAccess", mock.Anything, 5, "east").Return(nil)
				f.On("GrantAccess", mock.Anything, 5, model.TeamEverybodyMachineName).Return(nil)
				f.On("SetPermission", mock.Anything, 5, model.TeamEverybodyMachineName, groupware.PermissionRead).Return(nil)
			},
		},
		{
			name:      "franchise grant failure fails the operation",
			franchise: "east",
			setupMocks: func(f *MockFolders) {
				f.On("FindFolder", mock.Anything, "Franchises").Return(1, true, nil)
				f.On("FindFolder", mock.Anything, "Franchises/east").Return(0, false, nil)
				f.On("CreateFolder", mock.Anything, "Franchises/east").Return(5, nil)
				f.On("GrantAccess", mock.Anything, 5, "east").Return(errors.New("group missing"))
			},
			expectedError: true,
			errorCode:     ErrorCodeUnspecified,
		},
		{
			name:      "read grant failure fails the operation",
			franchise: "east",
			setupMocks: func(f *MockFolders) {
				f.On("FindFolder", mock.Anything, "Franchises").Return(1, true, nil)
				f.On("FindFolder", mock.Anything, "Franchises/east").Return(0, false, nil)
				f.On("CreateFolder", mock.Anything, "Franchises/east").Return(5, nil)
				f.On("GrantAccess", mock.Anything, 5, "east").Return(nil)
				f.On("GrantAccess", mock.Anything, 5, model.TeamEverybodyMachineName).Return(errors.New("group missing"))
			},
			expectedError: true,
			errorCode:     ErrorCodeUnspecified,
		},
		{
			name:      "groupware unavailable",
			franchise: "east",
			setupMocks: func(f *MockFolders) {
				f.On("FindFolder", mock.Anything, "Franchises").Return(0, false, groupware.ErrUnavailable)
			},
			expectedError: true,
			errorCode:     ErrorCodeGatewayUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockFolders := new(MockFolders)
			tt.setupMocks(mockFolders)

			service := NewFolderService().WithFolders(mockFolders)

			err := service.CreateFranchiseFolder(context.Background(), tt.franchise)

			if tt.expectedError {
				require.NotNil(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
			} else {
				assert.Nil(t, err)
			}

			mockFolders.AssertExpectations(t)
		})
	}
}

// Two franchise folders share one container; the container and its read
// grant for the distinguished team happen exactly once.
func TestFolderService_ContainerCreatedOnce(t *testing.T) {
	mockFolders := new(MockFolders)

	mockFolders.On("FindFolder", mock.Anything, "Franchises").Return(0, false, nil).Once()
	mockFolders.On("FindFolder", mock.Anything, "Franchises").Return(1, true, nil)
	mockFolders.On("CreateFolder", mock.Anything, "Franchises").Return(1, nil).Once()
	mockFolders.On("GrantAccess", mock.Anything, 1, model.TeamEverybodyMachineName).Return(nil).Once()
	mockFolders.On("SetPermission", mock.Anything, 1, model.TeamEverybodyMachineName, groupware.PermissionRead).Return(nil).Once()

	mockFolders.On("FindFolder", mock.Anything, "Franchises/east").Return(0, false, nil)
	mockFolders.On("CreateFolder", mock.Anything, "Franchises/east").Return(5, nil)
	mockFolders.On("GrantAccess", mock.Anything, 5, "east").Return(nil)
	mockFolders.On("GrantAccess", mock.Anything, 5, model.TeamEverybodyMachineName).Return(nil)
	mockFolders.On("SetPermission", mock.Anything, 5, model.TeamEverybodyMachineName, groupware.PermissionRead).Return(nil)

	mockFolders.On("FindFolder", mock.Anything, "Franchises/west").Return(0, false, nil)
	mockFolders.On("CreateFolder", mock.Anything, "Franchises/west").Return(9, nil)
	mockFolders.On("GrantAccess", mock.Anything, 9, "west").Return(nil)
	mockFolders.On("GrantAccess", mock.Anything, 9, model.TeamEverybodyMachineName).Return(nil)
	mockFolders.On("SetPermission", mock.Anything, 9, model.TeamEverybodyMachineName, groupware.PermissionRead).Return(nil)

	service := NewFolderService().WithFolders(mockFolders)

	require.Nil(t, service.CreateFranchiseFolder(context.Background(), "east"))
	require.Nil(t, service.CreateFranchiseFolder(context.Background(), "west"))

	mockFolders.AssertExpectations(t)
	mockFolders.AssertNumberOfCalls(t, "CreateFolder", 3)
}
