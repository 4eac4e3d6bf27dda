package engine

import (
	"github.com/coverlabs/mulberry/internal/common"
	"github.com/coverlabs/mulberry/internal/event"
)

// AddAssessorsToGroup adds assessors to a group, minting a new group when
// groupID is the sentinel zero. One MemberAdded signal is emitted per listed
// id, including ids that were already members: re-confirmation is observable
// on purpose.
func (e *Engine) AddAssessorsToGroup(caller Caller, assessors []common.AssessorID, groupID common.GroupID) (common.GroupID, error) {
	if caller.Role != RoleGovernor {
		return 0, ErrUnauthorized
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	affected, err := e.groups.AddAssessors(assessors, groupID)
	if err != nil {
		return 0, err
	}

	if err := e.persistGroup(affected); err != nil {
		return 0, err
	}

	e.logger.Info().
		Uint64("group", uint64(affected)).
		Int("assessors", len(assessors)).
		Msg("assessors added to group")
	for _, id := range assessors {
		e.bus.Publish(event.TypeMemberAdded, event.MemberAdded{GroupID: affected, AssessorID: id})
	}
	return affected, nil
}

// RemoveAssessorFromAllGroups removes the assessor from every group it
// belongs to, signalling each departure. An assessor in no groups is a
// successful no-op.
func (e *Engine) RemoveAssessorFromAllGroups(caller Caller, assessor common.AssessorID) error {
	if caller.Role != RoleGovernor {
		return ErrUnauthorized
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	removed, err := e.groups.RemoveFromAllGroups(assessor)
	if err != nil {
		return err
	}

	for _, groupID := range removed {
		if err := e.persistGroup(groupID); err != nil {
			return err
		}
	}

	e.logger.Info().
		Uint64("assessor", uint64(assessor)).
		Int("groups", len(removed)).
		Msg("assessor removed from groups")
	for _, groupID := range removed {
		e.bus.Publish(event.TypeMemberRemoved, event.MemberRemoved{GroupID: groupID, AssessorID: assessor})
	}
	return nil
}

func (e *Engine) persistGroup(groupID common.GroupID) error {
	if e.persist == nil {
		return nil
	}
	members, err := e.groups.GroupMembers(groupID)
	if err != nil {
		return err
	}
	return e.persist.PutGroup(groupID, members)
}

// GroupSize returns the current member count of a group.
func (e *Engine) GroupSize(groupID common.GroupID) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.groups.GroupSize(groupID)
}

// GroupMembers returns the group's members in ascending id order.
func (e *Engine) GroupMembers(groupID common.GroupID) ([]common.AssessorID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.groups.GroupMembers(groupID)
}

// IsMemberOf reports whether the assessor belongs to the group.
func (e *Engine) IsMemberOf(groupID common.GroupID, assessor common.AssessorID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.groups.IsMember(groupID, assessor)
}

// GroupsForAssessor returns every group containing the assessor.
func (e *Engine) GroupsForAssessor(assessor common.AssessorID) []common.GroupID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.groups.GroupsFor(assessor)
}

// GroupCount returns how many groups have ever been minted.
func (e *Engine) GroupCount() common.GroupID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.groups.GroupCount()
}
