package engine

import "github.com/coverlabs/mulberry/internal/common"

// Role is the authorization class of a caller. Address-to-role resolution is
// the host's job (identity registry, contract address checks); the engine
// consumes the resolved result and only enforces it.
type Role uint8

const (
	// RoleAssessor is an ordinary member, identified by its AssessorID.
	RoleAssessor Role = iota
	// RoleGovernor is the governance collaborator; admin entry points only.
	RoleGovernor
	// RoleClaims is the claims intake collaborator; it alone starts assessments.
	RoleClaims
)

func (r Role) String() string {
	switch r {
	case RoleAssessor:
		return "assessor"
	case RoleGovernor:
		return "governor"
	case RoleClaims:
		return "claims"
	default:
		return "unknown"
	}
}

// Caller is the authenticated identity behind one engine call.
type Caller struct {
	Role       Role
	AssessorID common.AssessorID
}

// Governor returns the governance caller identity.
func Governor() Caller {
	return Caller{Role: RoleGovernor}
}

// ClaimsCollaborator returns the claims component's caller identity.
func ClaimsCollaborator() Caller {
	return Caller{Role: RoleClaims}
}

// Assessor returns the caller identity of one member.
func Assessor(id common.AssessorID) Caller {
	return Caller{Role: RoleAssessor, AssessorID: id}
}
