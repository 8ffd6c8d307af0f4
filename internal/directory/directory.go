package directory

import (
	"context"

	"github.com/matejak/teap/internal/model"
)

// GroupKind selects the directory subtree a group lives in.
type GroupKind string

const (
	GroupTeam      GroupKind = "team"
	GroupFranchise GroupKind = "franchise"
	GroupDivision  GroupKind = "division"
)

// GroupID identifies a membership target: a team, a franchise group or a
// division group, by machine name.
type GroupID struct {
	Kind GroupKind
	Name string
}

func TeamGroup(name string) GroupID      { return GroupID{Kind: GroupTeam, Name: name} }
func FranchiseGroup(name string) GroupID { return GroupID{Kind: GroupFranchise, Name: name} }
func DivisionGroup(name string) GroupID  { return GroupID{Kind: GroupDivision, Name: name} }

// OwningPair is the (franchise, division) combination a derived team belongs
// to.
type OwningPair struct {
	Franchise string `json:"franchise"`
	Division  string `json:"division"`
}

// Directory is the capability set the provisioning engines need from the
// directory service. Implementations map their own failure modes onto
// ErrNotFound, ErrAlreadyExists and ErrUnavailable.
type Directory interface {
	CreateUser(ctx context.Context, uid, givenName, surname, password string) error
	GetUser(ctx context.Context, uid string) (*model.User, error)
	DeleteUser(ctx context.Context, uid string) error
	SetUserPassword(ctx context.Context, uid, password string) error
	GetUserTeams(ctx context.Context, uid string) ([]*model.Team, error)

	CreateFranchise(ctx context.Context, machineName, displayName string) error
	GetFranchises(ctx context.Context) ([]*model.Franchise, error)

	CreateDivision(ctx context.Context, machineName, displayName string) error
	GetDivisions(ctx context.Context) ([]*model.Division, error)

	CreateTeam(ctx context.Context, machineName, displayName string) error
	GetTeam(ctx context.Context, machineName string) (*model.Team, error)

	// GetTeamOwningPair resolves the franchise and division a team was
	// derived from, against live directory content. Unpaired teams (such as
	// "everybody") yield a nil pair.
	GetTeamOwningPair(ctx context.Context, team string) (*OwningPair, error)

	AddMembership(ctx context.Context, uid string, group GroupID) error
}
