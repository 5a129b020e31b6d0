package pipeline

// Role is the closed enumeration of caller roles stored in profiles.rolle.
// Unknown strings never parse; the role gate denies them.
type Role string

const (
	RoleAdmin               Role = "admin"
	RoleHeilpraktiker       Role = "heilpraktiker"
	RolePhysiotherapeut     Role = "physiotherapeut"
	RolePraeventionstrainer Role = "praeventionstrainer"
	RolePersonalTrainer     Role = "personal_trainer"
	RolePraxisverwaltung    Role = "praxisverwaltung"
	RolePatient             Role = "patient"
)

// ParseRole maps a stored role string onto the enumeration.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleHeilpraktiker, RolePhysiotherapeut,
		RolePraeventionstrainer, RolePersonalTrainer,
		RolePraxisverwaltung, RolePatient:
		return Role(s), true
	}
	return "", false
}

// RoleSet is an allow-list of roles for an operation.
type RoleSet map[Role]struct{}

// Roles builds a RoleSet.
func Roles(roles ...Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

// Contains reports membership.
func (s RoleSet) Contains(r Role) bool {
	_, ok := s[r]
	return ok
}

// Treating returns the roles that give treatments or run courses.
func Treating() RoleSet {
	return Roles(RoleAdmin, RoleHeilpraktiker, RolePhysiotherapeut,
		RolePraeventionstrainer, RolePersonalTrainer)
}

// Staff returns all non-patient roles.
func Staff() RoleSet {
	return Roles(RoleAdmin, RoleHeilpraktiker, RolePhysiotherapeut,
		RolePraeventionstrainer, RolePersonalTrainer, RolePraxisverwaltung)
}
