// Package store persists the engine's tables in a key-value store: groups,
// product-type configuration, ballots, stake accounts, fraud roots and the
// governance voting period. Records are small fixed-width structs, encoded
// by hand; keys carry a table prefix byte followed by big-endian ids so
// range scans walk each table in id order.
package store

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/coverlabs/mulberry/internal/assessment"
	"github.com/coverlabs/mulberry/internal/ballot"
	"github.com/coverlabs/mulberry/internal/common"
	"github.com/coverlabs/mulberry/internal/covertime"
	"github.com/coverlabs/mulberry/internal/crypto"
	"github.com/coverlabs/mulberry/internal/product"
	"github.com/coverlabs/mulberry/internal/stake"
	"github.com/coverlabs/mulberry/pkg/db"
)

const (
	prefixGroup byte = iota + 1
	prefixProduct
	prefixBallot
	prefixAssessment
	prefixAccount
	prefixFraudRoot
	prefixParams
)

const paramVotingPeriod byte = 1

// Store is a thin typed layer over a KVStore. The engine writes through it
// after every mutation and reads it back only at startup.
type Store struct {
	db db.KVStore
}

func New(kv db.KVStore) *Store {
	return &Store{db: kv}
}

func makeKey(prefix byte, ids ...uint64) []byte {
	key := make([]byte, 1+8*len(ids))
	key[0] = prefix
	for i, id := range ids {
		binary.BigEndian.PutUint64(key[1+8*i:], id)
	}
	return key
}

// prefixRange returns the [start, end) bounds covering every key of a table.
func prefixRange(prefix byte) ([]byte, []byte) {
	return []byte{prefix}, []byte{prefix + 1}
}

func (s *Store) scan(prefix byte, fn func(key, value []byte) error) error {
	start, end := prefixRange(prefix)
	iter, err := s.db.NewIterator(start, end)
	if err != nil {
		return fmt.Errorf("create iterator: %w", err)
	}
	defer iter.Close() //nolint:errcheck

	for iter.Next() {
		if !iter.Valid() {
			break
		}
		value, err := iter.Value()
		if err != nil {
			return fmt.Errorf("get iterator value: %w", err)
		}
		if err := fn(iter.Key(), value); err != nil {
			return err
		}
	}
	return nil
}

// PutGroup stores a group's full membership, empty groups included; a group
// record existing at all is what marks the id as minted.
func (s *Store) PutGroup(groupID common.GroupID, members []common.AssessorID) error {
	value := make([]byte, 8+8*len(members))
	binary.BigEndian.PutUint64(value, uint64(len(members)))
	for i, id := range members {
		binary.BigEndian.PutUint64(value[8+8*i:], uint64(id))
	}
	if err := s.db.Put(makeKey(prefixGroup, uint64(groupID)), value); err != nil {
		return fmt.Errorf("put group: %w", err)
	}
	return nil
}

// Groups returns every stored group in id order.
func (s *Store) Groups() (map[common.GroupID][]common.AssessorID, error) {
	out := make(map[common.GroupID][]common.AssessorID)
	err := s.scan(prefixGroup, func(key, value []byte) error {
		if len(value) < 8 {
			return fmt.Errorf("group record too short: %d bytes", len(value))
		}
		groupID := common.GroupID(binary.BigEndian.Uint64(key[1:]))
		n := binary.BigEndian.Uint64(value)
		if uint64(len(value)) != 8+8*n {
			return fmt.Errorf("group %d record length mismatch", groupID)
		}
		members := make([]common.AssessorID, 0, n)
		for i := uint64(0); i < n; i++ {
			members = append(members, common.AssessorID(binary.BigEndian.Uint64(value[8+8*i:])))
		}
		out[groupID] = members
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PutProduct stores one product type's assessment data.
func (s *Store) PutProduct(productType common.ProductTypeID, data product.AssessmentData) error {
	value := make([]byte, 16)
	binary.BigEndian.PutUint64(value, uint64(data.CooldownPeriod))
	binary.BigEndian.PutUint64(value[8:], uint64(data.AssessingGroupID))
	if err := s.db.Put(makeKey(prefixProduct, uint64(productType)), value); err != nil {
		return fmt.Errorf("put product: %w", err)
	}
	return nil
}

// Products returns every configured product type.
func (s *Store) Products() (map[common.ProductTypeID]product.AssessmentData, error) {
	out := make(map[common.ProductTypeID]product.AssessmentData)
	err := s.scan(prefixProduct, func(key, value []byte) error {
		if len(value) != 16 {
			return fmt.Errorf("product record length mismatch: %d bytes", len(value))
		}
		pt := common.ProductTypeID(binary.BigEndian.Uint64(key[1:]))
		out[pt] = product.AssessmentData{
			CooldownPeriod:   covertime.Duration(binary.BigEndian.Uint64(value)),
			AssessingGroupID: common.GroupID(binary.BigEndian.Uint64(value[8:])),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PutBallot stores a ballot keyed by (assessor, sequence), so a scan yields
// each assessor's ballots in sequence order.
func (s *Store) PutBallot(b ballot.Ballot) error {
	value := make([]byte, 9+crypto.HashSize)
	binary.BigEndian.PutUint64(value, uint64(b.ClaimID))
	if b.Accepted {
		value[8] = 1
	}
	copy(value[9:], b.MetadataHash[:])
	key := makeKey(prefixBallot, uint64(b.AssessorID), uint64(b.SequenceIndex))
	if err := s.db.Put(key, value); err != nil {
		return fmt.Errorf("put ballot: %w", err)
	}
	return nil
}

// Ballots returns every stored ballot ordered by assessor, then sequence.
func (s *Store) Ballots() ([]ballot.Ballot, error) {
	var out []ballot.Ballot
	err := s.scan(prefixBallot, func(key, value []byte) error {
		if len(key) != 17 || len(value) != 9+crypto.HashSize {
			return fmt.Errorf("ballot record length mismatch")
		}
		b := ballot.Ballot{
			AssessorID:    common.AssessorID(binary.BigEndian.Uint64(key[1:])),
			SequenceIndex: common.SequenceIndex(binary.BigEndian.Uint64(key[9:])),
			ClaimID:       common.ClaimID(binary.BigEndian.Uint64(value)),
			Accepted:      value[8] == 1,
		}
		copy(b.MetadataHash[:], value[9:])
		out = append(out, b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PutAssessment stores a claim's assessment, tallies included.
func (s *Store) PutAssessment(a assessment.Assessment) error {
	value := make([]byte, 40)
	binary.BigEndian.PutUint64(value, uint64(a.AssessingGroupID))
	binary.BigEndian.PutUint64(value[8:], uint64(a.Start))
	binary.BigEndian.PutUint64(value[16:], uint64(a.VotingEnd))
	binary.BigEndian.PutUint64(value[24:], uint64(a.CooldownPeriod))
	binary.BigEndian.PutUint32(value[32:], a.AcceptVotes)
	binary.BigEndian.PutUint32(value[36:], a.DenyVotes)
	if err := s.db.Put(makeKey(prefixAssessment, uint64(a.ClaimID)), value); err != nil {
		return fmt.Errorf("put assessment: %w", err)
	}
	return nil
}

// Assessments returns every stored assessment in claim order.
func (s *Store) Assessments() ([]assessment.Assessment, error) {
	var out []assessment.Assessment
	err := s.scan(prefixAssessment, func(key, value []byte) error {
		if len(value) != 40 {
			return fmt.Errorf("assessment record length mismatch: %d bytes", len(value))
		}
		out = append(out, assessment.Assessment{
			ClaimID:          common.ClaimID(binary.BigEndian.Uint64(key[1:])),
			AssessingGroupID: common.GroupID(binary.BigEndian.Uint64(value)),
			Start:            covertime.Timestamp(binary.BigEndian.Uint64(value[8:])),
			VotingEnd:        covertime.Timestamp(binary.BigEndian.Uint64(value[16:])),
			CooldownPeriod:   covertime.Duration(binary.BigEndian.Uint64(value[24:])),
			AcceptVotes:      binary.BigEndian.Uint32(value[32:]),
			DenyVotes:        binary.BigEndian.Uint32(value[36:]),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PutAccount stores a stake account.
func (s *Store) PutAccount(acct stake.Account) error {
	value := make([]byte, 20)
	binary.BigEndian.PutUint64(value, uint64(acct.Amount))
	binary.BigEndian.PutUint64(value[8:], uint64(acct.RewardsWithdrawableFromIndex))
	binary.BigEndian.PutUint32(value[16:], acct.FraudCount)
	if err := s.db.Put(makeKey(prefixAccount, uint64(acct.AssessorID)), value); err != nil {
		return fmt.Errorf("put account: %w", err)
	}
	return nil
}

// Accounts returns every stored stake account in assessor order.
func (s *Store) Accounts() ([]stake.Account, error) {
	var out []stake.Account
	err := s.scan(prefixAccount, func(key, value []byte) error {
		if len(value) != 20 {
			return fmt.Errorf("account record length mismatch: %d bytes", len(value))
		}
		out = append(out, stake.Account{
			AssessorID:                   common.AssessorID(binary.BigEndian.Uint64(key[1:])),
			Amount:                       common.TokenAmount(binary.BigEndian.Uint64(value)),
			RewardsWithdrawableFromIndex: common.SequenceIndex(binary.BigEndian.Uint64(value[8:])),
			FraudCount:                   binary.BigEndian.Uint32(value[16:]),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PutFraudRoot stores a published fraud root at its index.
func (s *Store) PutFraudRoot(index int, root crypto.Hash) error {
	if err := s.db.Put(makeKey(prefixFraudRoot, uint64(index)), root[:]); err != nil {
		return fmt.Errorf("put fraud root: %w", err)
	}
	return nil
}

// FraudRoots returns the published roots in index order.
func (s *Store) FraudRoots() ([]crypto.Hash, error) {
	var out []crypto.Hash
	err := s.scan(prefixFraudRoot, func(key, value []byte) error {
		if len(value) != crypto.HashSize {
			return fmt.Errorf("fraud root record length mismatch: %d bytes", len(value))
		}
		var h crypto.Hash
		copy(h[:], value)
		out = append(out, h)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PutVotingPeriod stores the governance voting period.
func (s *Store) PutVotingPeriod(d covertime.Duration) error {
	value := make([]byte, 8)
	binary.BigEndian.PutUint64(value, uint64(d))
	if err := s.db.Put([]byte{prefixParams, paramVotingPeriod}, value); err != nil {
		return fmt.Errorf("put voting period: %w", err)
	}
	return nil
}

// VotingPeriod returns the stored voting period, or ok=false when none has
// been persisted yet.
func (s *Store) VotingPeriod() (covertime.Duration, bool, error) {
	value, err := s.db.Get([]byte{prefixParams, paramVotingPeriod})
	if errors.Is(err, db.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get voting period: %w", err)
	}
	if len(value) != 8 {
		return 0, false, fmt.Errorf("voting period record length mismatch: %d bytes", len(value))
	}
	return covertime.Duration(binary.BigEndian.Uint64(value)), true, nil
}
