package crew

import "fmt"

type Role string

const (
	RoleMember      Role = "member"
	RoleEnforcer    Role = "enforcer"
	RoleInfiltrator Role = "infiltrator"
	RoleLookout     Role = "lookout"
	RoleLeader      Role = "leader"
)

var AllRoles = map[Role]struct{}{
	RoleMember:      {},
	RoleEnforcer:    {},
	RoleInfiltrator: {},
	RoleLookout:     {},
	RoleLeader:      {},
}

// Membership ties a player to the crew (faction) they fight for.
type Membership struct {
	PlayerID  string
	FactionID string
	Role      Role
}

func (m Membership) Validate() error {
	if m.PlayerID == "" {
		return fmt.Errorf("membership player id is required")
	}
	if m.FactionID == "" {
		return fmt.Errorf("membership faction id is required")
	}
	if _, ok := AllRoles[m.Role]; !ok {
		return fmt.Errorf("unknown crew role %q", m.Role)
	}

	return nil
}
