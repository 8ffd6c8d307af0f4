package directory

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/go-ldap/ldap/v3"
	"github.com/matejak/teap/internal/model"
	"github.com/pkg/errors"
)

const (
	ouPeople     = "people"
	ouTeams      = "teams"
	ouFranchises = "franchises"
	ouDivisions  = "divisions"

	// gidFloor is the lowest group id handed out to provisioned groups,
	// keeping clear of system ranges.
	gidFloor = 5000
)

type ldapDirectory struct {
	conn   *ldap.Conn
	baseDN string
}

// NewLDAPDirectory wraps an already bound LDAP connection. The caller owns
// the connection lifetime.
func NewLDAPDirectory(conn *ldap.Conn, baseDN string) Directory {
	return &ldapDirectory{conn: conn, baseDN: baseDN}
}

func (d *ldapDirectory) CreateUser(ctx context.Context, uid, givenName, surname, password string) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}

	req := ldap.NewAddRequest(d.userDN(uid), nil)
	req.Attribute("objectClass", []string{"top", "person", "organizationalPerson", "inetOrgPerson"})
	req.Attribute("uid", []string{uid})
	req.Attribute("cn", []string{strings.TrimSpace(givenName + " " + surname)})
	req.Attribute("sn", []string{surname})
	if givenName != "" {
		req.Attribute("givenName", []string{givenName})
	}
	req.Attribute("userPassword", []string{password})

	return mapLDAPError(d.conn.Add(req))
}

func (d *ldapDirectory) GetUser(ctx context.Context, uid string) (*model.User, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	req := ldap.NewSearchRequest(d.ouDN(ouPeople), ldap.ScopeSingleLevel, ldap.NeverDerefAliases, 0, 0, false,
		fmt.Sprintf("(&(objectClass=inetOrgPerson)(uid=%s))", ldap.EscapeFilter(uid)),
		[]string{"uid", "givenName", "sn", "mail"}, nil)

	res, err := d.conn.Search(req)
	if err != nil {
		return nil, mapLDAPError(err)
	}
	if len(res.Entries) == 0 {
		return nil, ErrNotFound
	}

	e := res.Entries[0]
	return &model.User{
		UID:       decodeAttr(e, "uid"),
		GivenName: decodeAttr(e, "givenName"),
		Surname:   decodeAttr(e, "sn"),
		Mail:      decodeAttr(e, "mail"),
	}, nil
}

func (d *ldapDirectory) DeleteUser(ctx context.Context, uid string) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	return mapLDAPError(d.conn.Del(ldap.NewDelRequest(d.userDN(uid), nil)))
}

func (d *ldapDirectory) SetUserPassword(ctx context.Context, uid, password string) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	_, err := d.conn.PasswordModify(ldap.NewPasswordModifyRequest(d.userDN(uid), "", password))
	return mapLDAPError(err)
}

func (d *ldapDirectory) GetUserTeams(ctx context.Context, uid string) ([]*model.Team, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	req := ldap.NewSearchRequest(d.ouDN(ouTeams), ldap.ScopeSingleLevel, ldap.NeverDerefAliases, 0, 0, false,
		fmt.Sprintf("(&(objectClass=posixGroup)(memberUid=%s))", ldap.EscapeFilter(uid)),
		[]string{"cn", "description"}, nil)

	res, err := d.conn.Search(req)
	if err != nil {
		return nil, mapLDAPError(err)
	}

	teams := make([]*model.Team, 0, len(res.Entries))
	for _, e := range res.Entries {
		teams = append(teams, &model.Team{
			MachineName: decodeAttr(e, "cn"),
			DisplayName: decodeAttr(e, "description"),
		})
	}
	return teams, nil
}

func (d *ldapDirectory) CreateFranchise(ctx context.Context, machineName, displayName string) error {
	return d.createGroup(ctx, FranchiseGroup(machineName), displayName)
}

func (d *ldapDirectory) GetFranchises(ctx context.Context) ([]*model.Franchise, error) {
	entries, err := d.searchGroups(ctx, ouFranchises)
	if err != nil {
		return nil, err
	}
	franchises := make([]*model.Franchise, 0, len(entries))
	for _, e := range entries {
		franchises = append(franchises, &model.Franchise{
			MachineName: decodeAttr(e, "cn"),
			DisplayName: decodeAttr(e, "description"),
		})
	}
	return franchises, nil
}

func (d *ldapDirectory) CreateDivision(ctx context.Context, machineName, displayName string) error {
	return d.createGroup(ctx, DivisionGroup(machineName), displayName)
}

func (d *ldapDirectory) GetDivisions(ctx context.Context) ([]*model.Division, error) {
	entries, err := d.searchGroups(ctx, ouDivisions)
	if err != nil {
		return nil, err
	}
	divisions := make([]*model.Division, 0, len(entries))
	for _, e := range entries {
		divisions = append(divisions, &model.Division{
			MachineName: decodeAttr(e, "cn"),
			DisplayName: decodeAttr(e, "description"),
		})
	}
	return divisions, nil
}

func (d *ldapDirectory) CreateTeam(ctx context.Context, machineName, displayName string) error {
	return d.createGroup(ctx, TeamGroup(machineName), displayName)
}

func (d *ldapDirectory) GetTeam(ctx context.Context, machineName string) (*model.Team, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	req := ldap.NewSearchRequest(d.ouDN(ouTeams), ldap.ScopeSingleLevel, ldap.NeverDerefAliases, 0, 0, false,
		fmt.Sprintf("(&(objectClass=posixGroup)(cn=%s))", ldap.EscapeFilter(machineName)),
		[]string{"cn", "description"}, nil)

	res, err := d.conn.Search(req)
	if err != nil {
		return nil, mapLDAPError(err)
	}
	if len(res.Entries) == 0 {
		return nil, ErrNotFound
	}

	e := res.Entries[0]
	return &model.Team{
		MachineName: decodeAttr(e, "cn"),
		DisplayName: decodeAttr(e, "description"),
	}, nil
}

func (d *ldapDirectory) GetTeamOwningPair(ctx context.Context, team string) (*OwningPair, error) {
	if _, err := d.GetTeam(ctx, team); err != nil {
		return nil, err
	}

	franchises, err := d.GetFranchises(ctx)
	if err != nil {
		return nil, err
	}
	divisions, err := d.GetDivisions(ctx)
	if err != nil {
		return nil, err
	}

	fNames := make([]string, 0, len(franchises))
	for _, f := range franchises {
		fNames = append(fNames, f.MachineName)
	}
	dNames := make([]string, 0, len(divisions))
	for _, div := range divisions {
		dNames = append(dNames, div.MachineName)
	}

	return matchOwningPair(team, fNames, dNames), nil
}

func (d *ldapDirectory) AddMembership(ctx context.Context, uid string, group GroupID) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}

	req := ldap.NewModifyRequest(d.groupDN(group), nil)
	req.Add("memberUid", []string{uid})

	return mapLDAPError(d.conn.Modify(req))
}

func (d *ldapDirectory) createGroup(ctx context.Context, group GroupID, displayName string) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}

	gid, err := d.nextGID()
	if err != nil {
		return err
	}

	req := ldap.NewAddRequest(d.groupDN(group), nil)
	req.Attribute("objectClass", []string{"top", "posixGroup"})
	req.Attribute("cn", []string{group.Name})
	req.Attribute("gidNumber", []string{strconv.Itoa(gid)})
	if displayName != "" {
		req.Attribute("description", []string{displayName})
	}

	return mapLDAPError(d.conn.Add(req))
}

func (d *ldapDirectory) searchGroups(ctx context.Context, ou string) ([]*ldap.Entry, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	req := ldap.NewSearchRequest(d.ouDN(ou), ldap.ScopeSingleLevel, ldap.NeverDerefAliases, 0, 0, false,
		"(objectClass=posixGroup)", []string{"cn", "description"}, nil)

	res, err := d.conn.Search(req)
	if err != nil {
		return nil, mapLDAPError(err)
	}
	return res.Entries, nil
}

// nextGID scans existing groups and hands out the next free id. Concurrent
// creators may race; the loser surfaces as a constraint violation and the
// create is retried by the caller rerunning the batch.
func (d *ldapDirectory) nextGID() (int, error) {
	req := ldap.NewSearchRequest(d.baseDN, ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		"(objectClass=posixGroup)", []string{"gidNumber"}, nil)

	res, err := d.conn.Search(req)
	if err != nil {
		return 0, mapLDAPError(err)
	}

	next := gidFloor
	for _, e := range res.Entries {
		if gid, err := strconv.Atoi(e.GetAttributeValue("gidNumber")); err == nil && gid >= next {
			next = gid + 1
		}
	}
	return next, nil
}

func (d *ldapDirectory) ouDN(ou string) string {
	return fmt.Sprintf("ou=%s,%s", ou, d.baseDN)
}

func (d *ldapDirectory) userDN(uid string) string {
	return fmt.Sprintf("uid=%s,%s", ldap.EscapeDN(uid), d.ouDN(ouPeople))
}

func (d *ldapDirectory) groupDN(group GroupID) string {
	return fmt.Sprintf("cn=%s,%s", ldap.EscapeDN(group.Name), d.ouDN(groupOU(group.Kind)))
}

func groupOU(kind GroupKind) string {
	switch kind {
	case GroupFranchise:
		return ouFranchises
	case GroupDivision:
		return ouDivisions
	default:
		return ouTeams
	}
}

// matchOwningPair resolves the (franchise, division) pair a derived team name
// encodes, against the current franchise and division lists. Longer franchise
// names are tried first so slugs containing the separator resolve
// deterministically. Unpaired names yield nil.
func matchOwningPair(team string, franchises, divisions []string) *OwningPair {
	candidates := slices.Clone(franchises)
	slices.SortFunc(candidates, func(a, b string) int { return len(b) - len(a) })

	for _, f := range candidates {
		rest, ok := strings.CutPrefix(team, f+"-")
		if !ok {
			continue
		}
		if slices.Contains(divisions, rest) {
			return &OwningPair{Franchise: f, Division: rest}
		}
	}
	return nil
}

// decodeAttr reads an attribute from its raw directory encoding. Absent
// attributes decode to the empty string.
func decodeAttr(e *ldap.Entry, name string) string {
	return string(e.GetRawAttributeValue(name))
}

func checkCtx(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(ErrUnavailable, err.Error())
	}
	return nil
}

// mapLDAPError converts go-ldap result codes into the gateway sentinels.
// Code 20 (attributeOrValueExists) covers membership re-adds, which callers
// treat as idempotent success.
func mapLDAPError(err error) error {
	switch {
	case err == nil:
		return nil
	case ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject):
		return ErrNotFound
	case ldap.IsErrorWithCode(err, ldap.LDAPResultEntryAlreadyExists),
		ldap.IsErrorWithCode(err, ldap.LDAPResultAttributeOrValueExists):
		return ErrAlreadyExists
	case ldap.IsErrorWithCode(err, ldap.ErrorNetwork):
		return errors.Wrap(ErrUnavailable, err.Error())
	default:
		return err
	}
}
