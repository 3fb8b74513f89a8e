package user

import "slices"

// Principal is the authenticated caller as seen by the core. Roles come straight from the token.
type Principal struct {
	id    ID
	roles []Role
}

func NewPrincipal(id ID, roles []Role) *Principal {
	return &Principal{
		id:    id,
		roles: slices.Clone(roles),
	}
}

func (p *Principal) ID() ID        { return p.id }
func (p *Principal) Roles() []Role { return slices.Clone(p.roles) }

func (p *Principal) HasRole(role Role) bool {
	return role != "" && slices.Contains(p.roles, role)
}

func (p *Principal) IsPowerUser(rs RoleSet) bool {
	return p.HasRole(rs.PowerUser)
}

func (p *Principal) CanReadDetailedResult(rs RoleSet) bool {
	return p.HasRole(rs.DetailedResult)
}
