package domain

// Role is a player's position on their team for one game.
type Role string

const (
	RoleADC     Role = "ADC"
	RoleJungle  Role = "Jungle"
	RoleMid     Role = "Mid"
	RoleSolo    Role = "Solo"
	RoleSupport Role = "Support"
)

// AllRoles contains the five playable roles. Anything else in the scraped
// data ("Sub", "Coach", ...) is a labeling error to be repaired or reported.
var AllRoles = []Role{RoleADC, RoleJungle, RoleMid, RoleSolo, RoleSupport}

// IsValid reports whether the role is one of the five playable roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleADC, RoleJungle, RoleMid, RoleSolo, RoleSupport:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// TeamSize is the number of players per team; a game has exactly two teams.
const TeamSize = 5

// GodClass is the class the roster API assigns to a god.
type GodClass string

const (
	ClassAssassin GodClass = "Assassin"
	ClassGuardian GodClass = "Guardian"
	ClassHunter   GodClass = "Hunter"
	ClassMage     GodClass = "Mage"
	ClassWarrior  GodClass = "Warrior"
)

// IsValid reports whether the class is one the roster API can return.
func (c GodClass) IsValid() bool {
	switch c {
	case ClassAssassin, ClassGuardian, ClassHunter, ClassMage, ClassWarrior:
		return true
	}
	return false
}
