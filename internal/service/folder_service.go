package service

import (
	"context"
	"errors"

	"github.com/matejak/teap/internal/groupware"
	"github.com/matejak/teap/internal/model"
	"github.com/matejak/teap/pkg/logger"
	"go.uber.org/zap"
)

// FranchisesMountpoint is the top-level container all franchise folders live
// under.
const FranchisesMountpoint = "Franchises"

type FolderService struct {
	folders groupware.Folders
}

func NewFolderService() *FolderService {
	return &FolderService{}
}

// CreateFranchiseFolder provisions the franchise's shared folder under the
// container: the franchise group gets full access, the distinguished team
// explicit read access. Grants already applied when a later step fails are
// not rolled back; the operation is safe to re-run.
func (f *FolderService) CreateFranchiseFolder(ctx context.Context, franchise string) *Error {
	l := logger.FromContext(ctx)
	l.Info("creating franchise folder", zap.String("franchise", franchise))

	if _, svcErr := f.ensureContainer(ctx); svcErr != nil {
		return svcErr
	}

	folderID, _, svcErr := f.ensureFolder(ctx, FranchisesMountpoint+"/"+franchise)
	if svcErr != nil {
		return svcErr
	}

	if err := f.folders.GrantAccess(ctx, folderID, franchise); err != nil {
		l.Error("failed to grant franchise access", zap.String("franchise", franchise), zap.Error(err))
		return folderError(err, "failed to grant franchise access")
	}
	if svcErr := f.grantReadOnly(ctx, folderID, model.TeamEverybodyMachineName); svcErr != nil {
		return svcErr
	}

	l.Info("franchise folder ready", zap.String("franchise", franchise), zap.Int("folder_id", folderID))

	return nil
}

// ensureContainer creates the container on first use and grants the
// distinguished team read access exactly once, with that first creation.
func (f *FolderService) ensureContainer(ctx context.Context) (int, *Error) {
	id, created, svcErr := f.ensureFolder(ctx, FranchisesMountpoint)
	if svcErr != nil {
		return 0, svcErr
	}
	if created {
		if svcErr := f.grantReadOnly(ctx, id, model.TeamEverybodyMachineName); svcErr != nil {
			return 0, svcErr
		}
	}
	return id, nil
}

func (f *FolderService) ensureFolder(ctx context.Context, mountpoint string) (int, bool, *Error) {
	l := logger.FromContext(ctx)

	id, found, err := f.folders.FindFolder(ctx, mountpoint)
	if err != nil {
		l.Error("failed to look up folder", zap.String("mountpoint", mountpoint), zap.Error(err))
		return 0, false, folderError(err, "failed to look up folder")
	}
	if found {
		return id, false, nil
	}

	l.Info("creating folder", zap.String("mountpoint", mountpoint))

	id, err = f.folders.CreateFolder(ctx, mountpoint)
	if err != nil {
		l.Error("failed to create folder", zap.String("mountpoint", mountpoint), zap.Error(err))
		return 0, false, folderError(err, "failed to create folder")
	}
	return id, true, nil
}

func (f *FolderService) grantReadOnly(ctx context.Context, folderID int, group string) *Error {
	l := logger.FromContext(ctx)

	if err := f.folders.GrantAccess(ctx, folderID, group); err != nil {
		l.Error("failed to grant folder access",
			zap.Int("folder_id", folderID), zap.String("group", group), zap.Error(err))
		return folderError(err, "failed to grant folder access")
	}
	if err := f.folders.SetPermission(ctx, folderID, group, groupware.PermissionRead); err != nil {
		l.Error("failed to restrict folder permissions",
			zap.Int("folder_id", folderID), zap.String("group", group), zap.Error(err))
		return folderError(err, "failed to restrict folder permissions")
	}
	return nil
}

func folderError(err error, message string) *Error {
	if errors.Is(err, groupware.ErrUnavailable) {
		return NewError(ErrorCodeGatewayUnavailable, "groupware unavailable")
	}
	return NewError(ErrorCodeUnspecified, message)
}

func (f *FolderService) WithFolders(g groupware.Folders) *FolderService {
	f.folders = g
	return f
}
