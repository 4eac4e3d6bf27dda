// Package engine ties the assessment tables together behind a single
// serialized facade. Every external call, votes, staking, withdrawals,
// fraud processing, group admin, runs to completion under one lock: there is
// a total order over calls and no call ever observes another's partial
// effects, which is what the monotonic reward cursor depends on.
package engine

import (
	"fmt"

	"sync"

	"github.com/rs/zerolog"

	"github.com/coverlabs/mulberry/internal/assessment"
	"github.com/coverlabs/mulberry/internal/ballot"
	"github.com/coverlabs/mulberry/internal/common"
	"github.com/coverlabs/mulberry/internal/covertime"
	"github.com/coverlabs/mulberry/internal/event"
	"github.com/coverlabs/mulberry/internal/fraud"
	"github.com/coverlabs/mulberry/internal/member"
	"github.com/coverlabs/mulberry/internal/product"
	"github.com/coverlabs/mulberry/internal/stake"
	"github.com/coverlabs/mulberry/internal/store"
)

// Params are the governance-set engine parameters.
type Params struct {
	// VotingPeriod is how long each newly started assessment accepts votes.
	VotingPeriod covertime.Duration
}

// Engine owns the four tables and the fraud root registry.
type Engine struct {
	mu sync.Mutex

	clock        covertime.Clock
	votingPeriod covertime.Duration

	groups      *member.Registry
	products    *product.Table
	ballots     *ballot.Store
	assessments *assessment.Table
	ledger      *stake.Ledger
	fraudRoots  *fraud.Roots

	bus     *event.Bus
	persist *store.Store
	logger  zerolog.Logger
}

type Option func(*Engine)

// WithStore makes the engine write every mutation through to st and is the
// counterpart of Load.
func WithStore(st *store.Store) Option {
	return func(e *Engine) { e.persist = st }
}

// WithBus publishes the engine's signals on bus.
func WithBus(bus *event.Bus) Option {
	return func(e *Engine) { e.bus = bus }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New creates an empty engine. The voting period may be zero here and set
// later through SetVotingPeriod; StartAssessment rejects a zero period.
func New(clock covertime.Clock, params Params, opts ...Option) *Engine {
	e := &Engine{
		clock:        clock,
		votingPeriod: params.VotingPeriod,
		groups:       member.NewRegistry(),
		products:     product.NewTable(),
		ballots:      ballot.NewStore(),
		assessments:  assessment.NewTable(),
		ledger:       stake.NewLedger(),
		fraudRoots:   fraud.NewRoots(),
		bus:          event.NewBus(),
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load rebuilds an engine from a persisted store and keeps writing through
// to it. The persisted voting period, when present, overrides params.
func Load(clock covertime.Clock, params Params, st *store.Store, opts ...Option) (*Engine, error) {
	e := New(clock, params, append(opts, WithStore(st))...)

	if d, ok, err := st.VotingPeriod(); err != nil {
		return nil, fmt.Errorf("load voting period: %w", err)
	} else if ok {
		e.votingPeriod = d
	}

	groups, err := st.Groups()
	if err != nil {
		return nil, fmt.Errorf("load groups: %w", err)
	}
	// Groups were minted sequentially from 1 and are never deleted, so the
	// record count is also the highest id; replaying in id order reproduces
	// the registry, reverse index included.
	for id := common.GroupID(1); id <= common.GroupID(len(groups)); id++ {
		members, ok := groups[id]
		if !ok {
			return nil, fmt.Errorf("group records are not contiguous: missing id %d", id)
		}
		if _, err := e.groups.AddAssessors(members, common.NewGroupSentinel); err != nil {
			return nil, fmt.Errorf("restore group %d: %w", id, err)
		}
	}

	products, err := st.Products()
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	for pt, data := range products {
		if err := e.products.Set([]common.ProductTypeID{pt}, data.CooldownPeriod, data.AssessingGroupID); err != nil {
			return nil, fmt.Errorf("restore product %d: %w", pt, err)
		}
	}

	assessments, err := st.Assessments()
	if err != nil {
		return nil, fmt.Errorf("load assessments: %w", err)
	}
	for _, a := range assessments {
		if err := e.assessments.Restore(a); err != nil {
			return nil, fmt.Errorf("restore assessment %d: %w", a.ClaimID, err)
		}
	}

	ballots, err := st.Ballots()
	if err != nil {
		return nil, fmt.Errorf("load ballots: %w", err)
	}
	// The scan yields (assessor, sequence) order, so replaying assigns every
	// ballot its original sequence index.
	for _, b := range ballots {
		restored, err := e.ballots.Append(b.ClaimID, b.AssessorID, b.Accepted, b.MetadataHash)
		if err != nil {
			return nil, fmt.Errorf("restore ballot %d/%d: %w", b.ClaimID, b.AssessorID, err)
		}
		if restored.SequenceIndex != b.SequenceIndex {
			return nil, fmt.Errorf("ballot sequence mismatch for assessor %d: stored %d, rebuilt %d",
				b.AssessorID, b.SequenceIndex, restored.SequenceIndex)
		}
	}

	accounts, err := st.Accounts()
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	for _, acct := range accounts {
		e.ledger.Restore(acct)
	}

	roots, err := st.FraudRoots()
	if err != nil {
		return nil, fmt.Errorf("load fraud roots: %w", err)
	}
	for _, root := range roots {
		e.fraudRoots.Submit(root)
	}

	return e, nil
}

// Bus exposes the signal bus for subscribers.
func (e *Engine) Bus() *event.Bus {
	return e.bus
}

// VotingPeriod returns the current governance voting period.
func (e *Engine) VotingPeriod() covertime.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.votingPeriod
}

// SetVotingPeriod changes the voting period for assessments started from now
// on. Running assessments keep the window fixed at their creation.
func (e *Engine) SetVotingPeriod(caller Caller, d covertime.Duration) error {
	if caller.Role != RoleGovernor {
		return ErrUnauthorized
	}
	if d == 0 {
		return ErrZeroVotingPeriod
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.votingPeriod = d
	if e.persist != nil {
		if err := e.persist.PutVotingPeriod(d); err != nil {
			return err
		}
	}

	e.logger.Info().Uint64("seconds", uint64(d)).Msg("voting period changed")
	e.bus.Publish(event.TypeVotingPeriodChanged, event.VotingPeriodChanged{VotingPeriod: d})
	return nil
}
