package user

type Role string

func (r Role) String() string {
	return string(r)
}

func NewRole(s string) (Role, error) {
	if s == "" {
		return "", ErrInvalidRole
	}
	return Role(s), nil
}

// RoleSet maps the configured role names onto the capabilities the backend checks.
type RoleSet struct {
	User           Role
	PowerUser      Role
	DetailedResult Role
}
