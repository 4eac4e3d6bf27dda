// Package common holds the integer identifiers shared across the engine's
// tables. All of them are assigned by external collaborators (identity
// registry, claims intake) except GroupID, which this engine mints itself.
package common

// AssessorID identifies a vetted member. Zero is never a valid id.
type AssessorID uint64

// GroupID identifies an assessor group. Ids are minted sequentially from 1;
// zero is the "create a new group" sentinel in admin calls.
type GroupID uint64

// NewGroupSentinel requests creation of a fresh group when passed as the
// target of an add-assessors call.
const NewGroupSentinel GroupID = 0

// ClaimID identifies a claim, assigned by the claims collaborator.
type ClaimID uint64

// ProductTypeID identifies a claim category.
type ProductTypeID uint64

// TokenAmount is a quantity of staked or burned tokens. Custody lives with
// the token collaborator; this engine only does the accounting.
type TokenAmount uint64

// SequenceIndex orders one assessor's ballots across all claims. The first
// ballot an assessor ever casts is index 0, and indexes are contiguous.
type SequenceIndex uint64
