// Package member implements the assessor group registry: a many-to-many
// membership between assessors and groups, with a reverse index that is kept
// as the exact transpose of the group membership sets.
package member

import (
	"errors"
	"slices"

	"github.com/coverlabs/mulberry/internal/common"
)

var (
	ErrInvalidMemberID = errors.New("assessor id must be non-zero")
	ErrUnknownGroup    = errors.New("unknown assessor group")
)

// Registry owns every assessor group. Groups are minted sequentially and are
// never deleted; removal only empties membership.
type Registry struct {
	groups     map[common.GroupID]map[common.AssessorID]struct{}
	byAssessor map[common.AssessorID]map[common.GroupID]struct{}
	groupCount common.GroupID
}

func NewRegistry() *Registry {
	return &Registry{
		groups:     make(map[common.GroupID]map[common.AssessorID]struct{}),
		byAssessor: make(map[common.AssessorID]map[common.GroupID]struct{}),
	}
}

// AddAssessors adds the given assessors to a group. A target of
// common.NewGroupSentinel mints a new group whose id is the previous group
// count plus one. Adding an assessor already present leaves membership
// unchanged; the engine still signals the add, which is why no "already a
// member" error exists. Returns the id of the affected group.
func (r *Registry) AddAssessors(assessors []common.AssessorID, target common.GroupID) (common.GroupID, error) {
	for _, id := range assessors {
		if id == 0 {
			return 0, ErrInvalidMemberID
		}
	}

	groupID := target
	if target == common.NewGroupSentinel {
		r.groupCount++
		groupID = r.groupCount
		r.groups[groupID] = make(map[common.AssessorID]struct{})
	} else if _, ok := r.groups[target]; !ok {
		return 0, ErrUnknownGroup
	}

	members := r.groups[groupID]
	for _, id := range assessors {
		members[id] = struct{}{}
		if r.byAssessor[id] == nil {
			r.byAssessor[id] = make(map[common.GroupID]struct{})
		}
		r.byAssessor[id][groupID] = struct{}{}
	}

	return groupID, nil
}

// RemoveFromAllGroups removes the assessor from every group it belongs to and
// clears its reverse index. Returns the groups it was removed from, sorted,
// so the engine can signal each departure. An assessor in no groups is a
// successful no-op with an empty result.
func (r *Registry) RemoveFromAllGroups(assessor common.AssessorID) ([]common.GroupID, error) {
	if assessor == 0 {
		return nil, ErrInvalidMemberID
	}

	memberships := r.byAssessor[assessor]
	if len(memberships) == 0 {
		return nil, nil
	}

	removed := make([]common.GroupID, 0, len(memberships))
	for groupID := range memberships {
		delete(r.groups[groupID], assessor)
		removed = append(removed, groupID)
	}
	delete(r.byAssessor, assessor)

	slices.Sort(removed)
	return removed, nil
}

// GroupCount returns how many groups have ever been minted.
func (r *Registry) GroupCount() common.GroupID {
	return r.groupCount
}

// GroupSize returns the current number of members in a group.
func (r *Registry) GroupSize(groupID common.GroupID) (int, error) {
	members, ok := r.groups[groupID]
	if !ok {
		return 0, ErrUnknownGroup
	}
	return len(members), nil
}

// GroupMembers returns the group's membership in ascending assessor order.
func (r *Registry) GroupMembers(groupID common.GroupID) ([]common.AssessorID, error) {
	members, ok := r.groups[groupID]
	if !ok {
		return nil, ErrUnknownGroup
	}

	out := make([]common.AssessorID, 0, len(members))
	for id := range members {
		out = append(out, id)
	}
	slices.Sort(out)
	return out, nil
}

// IsMember reports whether the assessor currently belongs to the group.
// Unknown groups simply hold no members.
func (r *Registry) IsMember(groupID common.GroupID, assessor common.AssessorID) bool {
	_, ok := r.groups[groupID][assessor]
	return ok
}

// GroupsFor returns all groups containing the assessor, in ascending order.
func (r *Registry) GroupsFor(assessor common.AssessorID) []common.GroupID {
	memberships := r.byAssessor[assessor]
	out := make([]common.GroupID, 0, len(memberships))
	for groupID := range memberships {
		out = append(out, groupID)
	}
	slices.Sort(out)
	return out
}

// Exists reports whether the group id has been minted.
func (r *Registry) Exists(groupID common.GroupID) bool {
	_, ok := r.groups[groupID]
	return ok
}
