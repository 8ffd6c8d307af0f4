// Package groupware provisions shared folders through the Nextcloud group
// folders application.
package groupware

import "context"

// Permission is the access bitmask a group holds on a folder.
type Permission int

const (
	PermissionRead Permission = 1 << iota
	PermissionUpdate
	PermissionCreate
	PermissionDelete
	PermissionShare

	PermissionAll = PermissionRead | PermissionUpdate | PermissionCreate | PermissionDelete | PermissionShare
)

// Folders is the capability surface the provisioning flows need from the
// groupware side. Folder identifiers are assigned by the groupware and only
// interpreted, never invented, by callers.
type Folders interface {
	// CreateFolder mounts a new shared folder and returns its id.
	CreateFolder(ctx context.Context, mountpoint string) (int, error)
	// FindFolder looks a folder up by mountpoint. The second return reports
	// whether it exists.
	FindFolder(ctx context.Context, mountpoint string) (int, bool, error)
	// GrantAccess puts a group on the folder's access list with the
	// groupware's default permissions.
	GrantAccess(ctx context.Context, folderID int, group string) error
	// SetPermission replaces the permission mask a group holds on a folder.
	SetPermission(ctx context.Context, folderID int, group string, permissions Permission) error
}
