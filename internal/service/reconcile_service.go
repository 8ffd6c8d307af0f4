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

// DivisionSource supplies the canonical division mapping, machine name to
// display name, loaded fresh per reconciliation run.
type DivisionSource interface {
	Divisions() (map[string]string, error)
}

type ReconcileService struct {
	dir    directory.Directory
	source DivisionSource
}

func NewReconcileService() *ReconcileService {
	return &ReconcileService{}
}

// DivisionReport compares the canonical division list against the directory
// and reports per-division drift. It never writes to the directory; repair
// stays a human decision.
func (r *ReconcileService) DivisionReport(ctx context.Context) (map[string]*model.DivisionState, *Error) {
	l := logger.FromContext(ctx)

	configured, err := r.source.Divisions()
	if err != nil {
		l.Error("failed to load configured divisions", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to load configured divisions")
	}

	actual, err := r.dir.GetDivisions(ctx)
	if errors.Is(err, directory.ErrUnavailable) {
		l.Error("directory unavailable", zap.Error(err))
		return nil, NewError(ErrorCodeGatewayUnavailable, "directory unavailable")
	}
	if err != nil {
		l.Error("failed to list divisions", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list divisions")
	}

	report := MergeDivisions(configured, actual)

	drifted := 0
	for name, state := range report {
		if state.ExistsInConfig != state.ExistsInDirectory {
			drifted++
			l.Warn("division drift",
				zap.String("division", name),
				zap.Bool("in_config", state.ExistsInConfig),
				zap.Bool("in_directory", state.ExistsInDirectory))
		}
	}
	metrics.DivisionDrift.Set(float64(drifted))

	return report, nil
}

// CheckSingletons verifies the distinguished teams exist. A missing one is
// reported and the system keeps running degraded; only an unreachable
// directory is an error.
func (r *ReconcileService) CheckSingletons(ctx context.Context) ([]string, *Error) {
	l := logger.FromContext(ctx)

	missing := make([]string, 0, 2)
	for _, name := range []string{model.TeamEverybodyMachineName, model.TeamInternationalMachineName} {
		_, err := r.dir.GetTeam(ctx, name)
		if errors.Is(err, directory.ErrNotFound) {
			l.Warn("distinguished team missing", zap.String("team", name))
			missing = append(missing, name)
			continue
		}
		if errors.Is(err, directory.ErrUnavailable) {
			l.Error("directory unavailable", zap.Error(err))
			return nil, NewError(ErrorCodeGatewayUnavailable, "directory unavailable")
		}
		if err != nil {
			l.Error("failed to check distinguished team", zap.String("team", name), zap.Error(err))
			return nil, NewError(ErrorCodeUnspecified, "failed to check distinguished team")
		}
	}

	return missing, nil
}

// MergeDivisions folds the configured mapping and the directory's division
// list into one view keyed by machine name. A name known to only one side
// keeps the other side's flag false and its display name absent.
func MergeDivisions(configured map[string]string, actual []*model.Division) map[string]*model.DivisionState {
	states := make(map[string]*model.DivisionState, len(configured)+len(actual))

	for name, displayName := range configured {
		label := displayName
		states[name] = &model.DivisionState{
			ExistsInConfig:    true,
			ConfigDisplayName: &label,
		}
	}

	for _, division := range actual {
		state, ok := states[division.MachineName]
		if !ok {
			state = &model.DivisionState{}
			states[division.MachineName] = state
		}
		state.ExistsInDirectory = true
		if division.DisplayName != "" {
			label := division.DisplayName
			state.DirectoryDisplayName = &label
		}
	}

	return states
}

func (r *ReconcileService) WithDirectory(d directory.Directory) *ReconcileService {
	r.dir = d
	return r
}

func (r *ReconcileService) WithDivisionSource(s DivisionSource) *ReconcileService {
	r.source = s
	return r
}
