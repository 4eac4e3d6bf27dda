// Package stake implements the per-assessor stake and reward accounting.
// The load-bearing piece is the rewards cursor: every ballot below it is
// resolved, paid out or excluded for fraud, and is never revisited. All
// cursor writes funnel through AdvanceCursor, which only ever moves it
// forward, so withdrawals and fraud resolution can arrive in any order and
// any number of times without un-resolving history.
package stake

import (
	"errors"

	"github.com/coverlabs/mulberry/internal/common"
	"github.com/coverlabs/mulberry/internal/safemath"
)

var (
	ErrZeroStake     = errors.New("stake amount must be positive")
	ErrStakeOverflow = errors.New("stake amount overflows the account")
)

// Account is one assessor's accounting record. Token custody is external;
// Amount here mirrors what the custody collaborator holds for the assessor.
type Account struct {
	AssessorID                   common.AssessorID
	Amount                       common.TokenAmount
	RewardsWithdrawableFromIndex common.SequenceIndex
	FraudCount                   uint32
}

// Ledger owns every stake account. Accounts materialize on first touch; an
// assessor the engine has never seen has a zero account.
type Ledger struct {
	accounts map[common.AssessorID]*Account
}

func NewLedger() *Ledger {
	return &Ledger{accounts: make(map[common.AssessorID]*Account)}
}

func (l *Ledger) getOrCreate(assessorID common.AssessorID) *Account {
	acct, ok := l.accounts[assessorID]
	if !ok {
		acct = &Account{AssessorID: assessorID}
		l.accounts[assessorID] = acct
	}
	return acct
}

// Deposit increases the assessor's staked amount.
func (l *Ledger) Deposit(assessorID common.AssessorID, amount common.TokenAmount) (common.TokenAmount, error) {
	if amount == 0 {
		return 0, ErrZeroStake
	}

	acct := l.getOrCreate(assessorID)
	total, ok := safemath.Add64(uint64(acct.Amount), uint64(amount))
	if !ok {
		return 0, ErrStakeOverflow
	}
	acct.Amount = common.TokenAmount(total)
	return acct.Amount, nil
}

// WithdrawAll zeroes the account's staked amount and returns what was held.
// Eligibility (no votes still at fraud risk) is the engine's check.
func (l *Ledger) WithdrawAll(assessorID common.AssessorID) common.TokenAmount {
	acct := l.getOrCreate(assessorID)
	amount := acct.Amount
	acct.Amount = 0
	return amount
}

// Burn removes up to amount from the stake, saturating at zero, and returns
// what was actually burned. Fraud penalties may name a stake larger than
// what remains.
func (l *Ledger) Burn(assessorID common.AssessorID, amount common.TokenAmount) common.TokenAmount {
	acct := l.getOrCreate(assessorID)
	burned := amount
	if burned > acct.Amount {
		burned = acct.Amount
	}
	acct.Amount -= burned
	return burned
}

// AdvanceCursor raises the rewards cursor to candidate if, and only if, that
// moves it forward. Stale or repeated candidates leave it untouched. Returns
// the cursor after the call.
func (l *Ledger) AdvanceCursor(assessorID common.AssessorID, candidate common.SequenceIndex) common.SequenceIndex {
	acct := l.getOrCreate(assessorID)
	if candidate > acct.RewardsWithdrawableFromIndex {
		acct.RewardsWithdrawableFromIndex = candidate
	}
	return acct.RewardsWithdrawableFromIndex
}

// Cursor returns the assessor's current rewards cursor.
func (l *Ledger) Cursor(assessorID common.AssessorID) common.SequenceIndex {
	acct, ok := l.accounts[assessorID]
	if !ok {
		return 0
	}
	return acct.RewardsWithdrawableFromIndex
}

// IncrementFraudCount bumps the number of times the assessor has been found
// fraudulent and returns the new count.
func (l *Ledger) IncrementFraudCount(assessorID common.AssessorID) uint32 {
	acct := l.getOrCreate(assessorID)
	acct.FraudCount++
	return acct.FraudCount
}

// Get returns a copy of the assessor's account.
func (l *Ledger) Get(assessorID common.AssessorID) Account {
	acct, ok := l.accounts[assessorID]
	if !ok {
		return Account{AssessorID: assessorID}
	}
	return *acct
}

// Assessors returns every assessor with a materialized account, unordered.
func (l *Ledger) Assessors() []common.AssessorID {
	out := make([]common.AssessorID, 0, len(l.accounts))
	for id := range l.accounts {
		out = append(out, id)
	}
	return out
}

// Restore re-inserts a persisted account verbatim.
func (l *Ledger) Restore(acct Account) {
	stored := acct
	l.accounts[acct.AssessorID] = &stored
}
