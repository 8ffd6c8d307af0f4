package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/matejak/teap/internal/directory"
	"github.com/matejak/teap/internal/metrics"
	"github.com/matejak/teap/internal/model"
	"github.com/matejak/teap/pkg/logger"
	"go.uber.org/zap"
)

type UserService struct {
	dir directory.Directory
}

func NewUserService() *UserService {
	return &UserService{}
}

// ProvisionUser creates the user record, joins the requested teams and
// finally joins the distinguished team. The user record must exist before
// any membership call; the distinguished join comes last so a partial
// failure leaves the user detectable by its absence from that team.
func (u *UserService) ProvisionUser(ctx context.Context, user *model.User, password string) *Error {
	l := logger.FromContext(ctx)
	l.Info("provisioning user", zap.String("uid", user.UID), zap.Strings("teams", user.Teams))

	err := u.dir.CreateUser(ctx, user.UID, user.GivenName, user.Surname, password)
	if errors.Is(err, directory.ErrAlreadyExists) {
		l.Warn("user already exists", zap.String("uid", user.UID))
		return NewError(ErrorCodeAlreadyExists, "user already exists")
	}
	if errors.Is(err, directory.ErrUnavailable) {
		l.Error("directory unavailable", zap.String("uid", user.UID), zap.Error(err))
		return NewError(ErrorCodeGatewayUnavailable, "directory unavailable")
	}
	if err != nil {
		l.Error("failed to create user", zap.String("uid", user.UID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to create user")
	}

	for _, team := range user.Teams {
		if svcErr := u.join(ctx, user.UID, directory.TeamGroup(team)); svcErr != nil {
			return svcErr
		}
	}

	if svcErr := u.ensureEverybody(ctx); svcErr != nil {
		return svcErr
	}
	if svcErr := u.join(ctx, user.UID, directory.TeamGroup(model.TeamEverybodyMachineName)); svcErr != nil {
		return svcErr
	}

	metrics.UsersProvisioned.Inc()
	l.Info("user provisioned", zap.String("uid", user.UID))

	return nil
}

// AddToTeam joins the user to a team and cascades the membership to the
// owning franchise and division groups, in that order. Unpaired teams get
// the team join only. Nothing is joined when the team does not exist.
func (u *UserService) AddToTeam(ctx context.Context, uid, teamName string) *Error {
	l := logger.FromContext(ctx)
	l.Info("adding user to team", zap.String("uid", uid), zap.String("team", teamName))

	pair, err := u.dir.GetTeamOwningPair(ctx, teamName)
	if errors.Is(err, directory.ErrNotFound) {
		l.Warn("team not found", zap.String("team", teamName))
		return NewError(ErrorCodeNotFound, "team not found")
	}
	if errors.Is(err, directory.ErrUnavailable) {
		l.Error("directory unavailable", zap.String("team", teamName), zap.Error(err))
		return NewError(ErrorCodeGatewayUnavailable, "directory unavailable")
	}
	if err != nil {
		l.Error("failed to resolve owning pair", zap.String("team", teamName), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to resolve owning pair")
	}

	if svcErr := u.join(ctx, uid, directory.TeamGroup(teamName)); svcErr != nil {
		return svcErr
	}
	if pair != nil {
		if svcErr := u.join(ctx, uid, directory.FranchiseGroup(pair.Franchise)); svcErr != nil {
			return svcErr
		}
		if svcErr := u.join(ctx, uid, directory.DivisionGroup(pair.Division)); svcErr != nil {
			return svcErr
		}
	}

	metrics.MembershipsCascaded.Inc()
	l.Info("membership cascade complete", zap.String("uid", uid), zap.String("team", teamName))

	return nil
}

func (u *UserService) GetUser(ctx context.Context, uid string) (*model.User, *Error) {
	l := logger.FromContext(ctx)
	l.Debug("getting user", zap.String("uid", uid))

	user, err := u.dir.GetUser(ctx, uid)
	if errors.Is(err, directory.ErrNotFound) {
		l.Warn("user not found", zap.String("uid", uid))
		return nil, NewError(ErrorCodeNotFound, "user not found")
	}
	if errors.Is(err, directory.ErrUnavailable) {
		l.Error("directory unavailable", zap.String("uid", uid), zap.Error(err))
		return nil, NewError(ErrorCodeGatewayUnavailable, "directory unavailable")
	}
	if err != nil {
		l.Error("failed to get user", zap.String("uid", uid), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get user")
	}

	teams, err := u.dir.GetUserTeams(ctx, uid)
	if err != nil {
		l.Error("failed to get user teams", zap.String("uid", uid), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get user teams")
	}
	for _, team := range teams {
		user.Teams = append(user.Teams, team.MachineName)
	}

	return user, nil
}

func (u *UserService) RemoveUser(ctx context.Context, uid string) *Error {
	l := logger.FromContext(ctx)
	l.Info("removing user", zap.String("uid", uid))

	err := u.dir.DeleteUser(ctx, uid)
	if errors.Is(err, directory.ErrNotFound) {
		l.Warn("user not found", zap.String("uid", uid))
		return NewError(ErrorCodeNotFound, "user not found")
	}
	if errors.Is(err, directory.ErrUnavailable) {
		l.Error("directory unavailable", zap.String("uid", uid), zap.Error(err))
		return NewError(ErrorCodeGatewayUnavailable, "directory unavailable")
	}
	if err != nil {
		l.Error("failed to remove user", zap.String("uid", uid), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to remove user")
	}

	return nil
}

func (u *UserService) SetPassword(ctx context.Context, uid, password string) *Error {
	l := logger.FromContext(ctx)
	l.Info("setting user password", zap.String("uid", uid))

	err := u.dir.SetUserPassword(ctx, uid, password)
	if errors.Is(err, directory.ErrNotFound) {
		l.Warn("user not found", zap.String("uid", uid))
		return NewError(ErrorCodeNotFound, "user not found")
	}
	if errors.Is(err, directory.ErrUnavailable) {
		l.Error("directory unavailable", zap.String("uid", uid), zap.Error(err))
		return NewError(ErrorCodeGatewayUnavailable, "directory unavailable")
	}
	if err != nil {
		l.Error("failed to set password", zap.String("uid", uid), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to set password")
	}

	return nil
}

// join adds one membership, treating the directory's "already a member"
// answer as success.
func (u *UserService) join(ctx context.Context, uid string, group directory.GroupID) *Error {
	l := logger.FromContext(ctx)

	err := u.dir.AddMembership(ctx, uid, group)
	if errors.Is(err, directory.ErrAlreadyExists) {
		l.Debug("membership already present", zap.String("uid", uid), zap.String("group", group.Name))
		return nil
	}
	if errors.Is(err, directory.ErrNotFound) {
		l.Warn("membership target missing", zap.String("uid", uid), zap.String("group", group.Name))
		return NewError(ErrorCodeNotFound, fmt.Sprintf("group %s not found", group.Name))
	}
	if errors.Is(err, directory.ErrUnavailable) {
		l.Error("directory unavailable", zap.String("uid", uid), zap.String("group", group.Name), zap.Error(err))
		return NewError(ErrorCodeGatewayUnavailable, "directory unavailable")
	}
	if err != nil {
		l.Error("failed to add membership", zap.String("uid", uid), zap.String("group", group.Name), zap.Error(err))
		return NewError(ErrorCodeUnspecified, fmt.Sprintf("failed to join %s", group.Name))
	}

	return nil
}

// ensureEverybody lazily materializes the distinguished team. Concurrent
// initializers may race on the create; the loser takes AlreadyExists as
// success and both converge on the re-fetch.
func (u *UserService) ensureEverybody(ctx context.Context) *Error {
	l := logger.FromContext(ctx)

	_, err := u.dir.GetTeam(ctx, model.TeamEverybodyMachineName)
	if errors.Is(err, directory.ErrNotFound) {
		l.Info("creating distinguished team", zap.String("team", model.TeamEverybodyMachineName))

		err = u.dir.CreateTeam(ctx, model.TeamEverybodyMachineName, model.TeamEverybodyDisplayName)
		if errors.Is(err, directory.ErrAlreadyExists) {
			err = nil
		}
		if err == nil {
			_, err = u.dir.GetTeam(ctx, model.TeamEverybodyMachineName)
		}
	}
	if errors.Is(err, directory.ErrUnavailable) {
		l.Error("directory unavailable", zap.Error(err))
		return NewError(ErrorCodeGatewayUnavailable, "directory unavailable")
	}
	if err != nil {
		l.Error("failed to ensure distinguished team", zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to ensure distinguished team")
	}

	return nil
}

func (u *UserService) WithDirectory(d directory.Directory) *UserService {
	u.dir = d
	return u
}
