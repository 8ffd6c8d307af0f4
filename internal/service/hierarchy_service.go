package service

import (
	"context"
	"errors"

	"github.com/matejak/teap/internal/directory"
	"github.com/matejak/teap/internal/metrics"
	"github.com/matejak/teap/internal/model"
	"github.com/matejak/teap/pkg/logger"
	"go.uber.org/zap"
)

type HierarchyService struct {
	dir directory.Directory
}

func NewHierarchyService() *HierarchyService {
	return &HierarchyService{}
}

// CreateFranchise registers the franchise and synchronously derives a team
// for every existing division, so the cross product is complete before the
// call returns.
func (h *HierarchyService) CreateFranchise(ctx context.Context, machineName, displayName string) (*model.DerivationSummary, *Error) {
	l := logger.FromContext(ctx)
	l.Info("creating franchise", zap.String("franchise", machineName))

	err := h.dir.CreateFranchise(ctx, machineName, displayName)
	if errors.Is(err, directory.ErrAlreadyExists) {
		l.Warn("franchise already exists", zap.String("franchise", machineName))
		return nil, NewError(ErrorCodeAlreadyExists, "franchise already exists")
	}
	if errors.Is(err, directory.ErrUnavailable) {
		l.Error("directory unavailable", zap.String("franchise", machineName), zap.Error(err))
		return nil, NewError(ErrorCodeGatewayUnavailable, "directory unavailable")
	}
	if err != nil {
		l.Error("failed to create franchise", zap.String("franchise", machineName), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to create franchise")
	}

	return h.deriveForFranchise(ctx, &model.Franchise{MachineName: machineName, DisplayName: displayName})
}

// CreateDivision mirrors CreateFranchise along the other axis.
func (h *HierarchyService) CreateDivision(ctx context.Context, machineName, displayName string) (*model.DerivationSummary, *Error) {
	l := logger.FromContext(ctx)
	l.Info("creating division", zap.String("division", machineName))

	err := h.dir.CreateDivision(ctx, machineName, displayName)
	if errors.Is(err, directory.ErrAlreadyExists) {
		l.Warn("division already exists", zap.String("division", machineName))
		return nil, NewError(ErrorCodeAlreadyExists, "division already exists")
	}
	if errors.Is(err, directory.ErrUnavailable) {
		l.Error("directory unavailable", zap.String("division", machineName), zap.Error(err))
		return nil, NewError(ErrorCodeGatewayUnavailable, "directory unavailable")
	}
	if err != nil {
		l.Error("failed to create division", zap.String("division", machineName), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to create division")
	}

	return h.deriveForDivision(ctx, &model.Division{MachineName: machineName, DisplayName: displayName})
}

// EnsureFranchiseTeams re-runs derivation for an existing franchise. A
// repeat run converges on the same team set and reports all pairs skipped.
func (h *HierarchyService) EnsureFranchiseTeams(ctx context.Context, machineName string) (*model.DerivationSummary, *Error) {
	l := logger.FromContext(ctx)

	franchises, err := h.dir.GetFranchises(ctx)
	if errors.Is(err, directory.ErrUnavailable) {
		l.Error("directory unavailable", zap.Error(err))
		return nil, NewError(ErrorCodeGatewayUnavailable, "directory unavailable")
	}
	if err != nil {
		l.Error("failed to list franchises", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list franchises")
	}

	for _, franchise := range franchises {
		if franchise.MachineName == machineName {
			return h.deriveForFranchise(ctx, franchise)
		}
	}

	l.Warn("franchise not found", zap.String("franchise", machineName))
	return nil, NewError(ErrorCodeNotFound, "franchise not found")
}

func (h *HierarchyService) EnsureDivisionTeams(ctx context.Context, machineName string) (*model.DerivationSummary, *Error) {
	l := logger.FromContext(ctx)

	divisions, err := h.dir.GetDivisions(ctx)
	if errors.Is(err, directory.ErrUnavailable) {
		l.Error("directory unavailable", zap.Error(err))
		return nil, NewError(ErrorCodeGatewayUnavailable, "directory unavailable")
	}
	if err != nil {
		l.Error("failed to list divisions", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list divisions")
	}

	for _, division := range divisions {
		if division.MachineName == machineName {
			return h.deriveForDivision(ctx, division)
		}
	}

	l.Warn("division not found", zap.String("division", machineName))
	return nil, NewError(ErrorCodeNotFound, "division not found")
}

func (h *HierarchyService) GetTeam(ctx context.Context, machineName string) (*model.Team, *directory.OwningPair, *Error) {
	l := logger.FromContext(ctx)
	l.Debug("getting team", zap.String("team", machineName))

	team, err := h.dir.GetTeam(ctx, machineName)
	if errors.Is(err, directory.ErrNotFound) {
		l.Warn("team not found", zap.String("team", machineName))
		return nil, nil, NewError(ErrorCodeNotFound, "team not found")
	}
	if errors.Is(err, directory.ErrUnavailable) {
		l.Error("directory unavailable", zap.String("team", machineName), zap.Error(err))
		return nil, nil, NewError(ErrorCodeGatewayUnavailable, "directory unavailable")
	}
	if err != nil {
		l.Error("failed to get team", zap.String("team", machineName), zap.Error(err))
		return nil, nil, NewError(ErrorCodeUnspecified, "failed to get team")
	}

	pair, err := h.dir.GetTeamOwningPair(ctx, machineName)
	if err != nil {
		l.Error("failed to resolve owning pair", zap.String("team", machineName), zap.Error(err))
		return nil, nil, NewError(ErrorCodeUnspecified, "failed to resolve owning pair")
	}

	return team, pair, nil
}

func (h *HierarchyService) deriveForFranchise(ctx context.Context, franchise *model.Franchise) (*model.DerivationSummary, *Error) {
	l := logger.FromContext(ctx)

	divisions, err := h.dir.GetDivisions(ctx)
	if errors.Is(err, directory.ErrUnavailable) {
		l.Error("directory unavailable", zap.Error(err))
		return nil, NewError(ErrorCodeGatewayUnavailable, "directory unavailable")
	}
	if err != nil {
		l.Error("failed to list divisions", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list divisions")
	}

	summary := &model.DerivationSummary{}
	for _, division := range divisions {
		summary.Add(h.deriveTeam(ctx, franchise, division))
	}

	l.Info("franchise teams derived",
		zap.String("franchise", franchise.MachineName),
		zap.Int("created", summary.Created),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed))

	return summaryResult(summary)
}

func (h *HierarchyService) deriveForDivision(ctx context.Context, division *model.Division) (*model.DerivationSummary, *Error) {
	l := logger.FromContext(ctx)

	franchises, err := h.dir.GetFranchises(ctx)
	if errors.Is(err, directory.ErrUnavailable) {
		l.Error("directory unavailable", zap.Error(err))
		return nil, NewError(ErrorCodeGatewayUnavailable, "directory unavailable")
	}
	if err != nil {
		l.Error("failed to list franchises", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list franchises")
	}

	summary := &model.DerivationSummary{}
	for _, franchise := range franchises {
		summary.Add(h.deriveTeam(ctx, franchise, division))
	}

	l.Info("division teams derived",
		zap.String("division", division.MachineName),
		zap.Int("created", summary.Created),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed))

	return summaryResult(summary)
}

// deriveTeam creates the team for one (franchise, division) pair. An existing
// team is a skip, any other rejection a failure; neither stops the batch.
func (h *HierarchyService) deriveTeam(ctx context.Context, franchise *model.Franchise, division *model.Division) model.TeamOutcome {
	l := logger.FromContext(ctx)

	machineName := model.TeamMachineName(franchise.MachineName, division.MachineName)
	displayName := model.TeamDisplayName(
		displayLabel(franchise.DisplayName, franchise.MachineName),
		displayLabel(division.DisplayName, division.MachineName))

	var outcome model.TeamOutcome

	err := h.dir.CreateTeam(ctx, machineName, displayName)
	switch {
	case errors.Is(err, directory.ErrAlreadyExists):
		l.Debug("team already exists", zap.String("team", machineName))
		outcome = model.TeamOutcome{MachineName: machineName, Status: model.TeamSkipped}
	case err != nil:
		l.Error("failed to create team", zap.String("team", machineName), zap.Error(err))
		outcome = model.TeamOutcome{MachineName: machineName, Status: model.TeamFailed, Reason: err.Error()}
	default:
		l.Debug("team created", zap.String("team", machineName))
		outcome = model.TeamOutcome{MachineName: machineName, Status: model.TeamCreated}
	}

	metrics.TeamsDerived.WithLabelValues(string(outcome.Status)).Inc()

	return outcome
}

func summaryResult(summary *model.DerivationSummary) (*model.DerivationSummary, *Error) {
	if summary.Failed > 0 {
		return summary, NewError(ErrorCodePartialFailure, "some teams were not derived")
	}
	return summary, nil
}

func displayLabel(displayName, machineName string) string {
	if displayName != "" {
		return displayName
	}
	return machineName
}

func (h *HierarchyService) WithDirectory(d directory.Directory) *HierarchyService {
	h.dir = d
	return h
}
