// Package event carries the engine's observable signals. Delivery is
// synchronous, in call order, from inside the engine's serialized critical
// section: subscribers see signals in exactly the order the operations that
// produced them were applied.
package event

import (
	"sync"
	"time"

	"github.com/coverlabs/mulberry/internal/common"
	"github.com/coverlabs/mulberry/internal/covertime"
	"github.com/coverlabs/mulberry/internal/crypto"
)

type EventType string

const (
	TypeMemberAdded            EventType = "member.added"
	TypeMemberRemoved          EventType = "member.removed"
	TypeProductTypesConfigured EventType = "product.configured"
	TypeAssessmentStarted      EventType = "assessment.started"
	TypeVoteCast               EventType = "assessment.vote"
	TypeStakeDeposited         EventType = "stake.deposited"
	TypeStakeWithdrawn         EventType = "stake.withdrawn"
	TypeRewardsWithdrawn       EventType = "stake.rewards"
	TypeFraudRootSubmitted     EventType = "fraud.root"
	TypeFraudProcessed         EventType = "fraud.processed"
	TypeVotingPeriodChanged    EventType = "governance.votingperiod"
)

// Types returns every event type the bus can carry.
func Types() []EventType {
	return []EventType{
		TypeMemberAdded,
		TypeMemberRemoved,
		TypeProductTypesConfigured,
		TypeAssessmentStarted,
		TypeVoteCast,
		TypeStakeDeposited,
		TypeStakeWithdrawn,
		TypeRewardsWithdrawn,
		TypeFraudRootSubmitted,
		TypeFraudProcessed,
		TypeVotingPeriodChanged,
	}
}

type SubscriberID int

type HandlerFunc func(Event)

type Event struct {
	Timestamp time.Time
	Data      any
	Type      EventType
}

func NewEvent(eventType EventType, eventData any) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      eventData,
	}
}

// MemberAdded is emitted once per assessor id in an add call, including ids
// that were already members; re-confirmation is observable on purpose.
type MemberAdded struct {
	GroupID    common.GroupID
	AssessorID common.AssessorID
}

type MemberRemoved struct {
	GroupID    common.GroupID
	AssessorID common.AssessorID
}

type ProductTypesConfigured struct {
	ProductTypes     []common.ProductTypeID
	CooldownPeriod   covertime.Duration
	AssessingGroupID common.GroupID
}

type AssessmentStarted struct {
	ClaimID          common.ClaimID
	AssessingGroupID common.GroupID
	Start            covertime.Timestamp
	VotingEnd        covertime.Timestamp
}

type VoteCast struct {
	ClaimID       common.ClaimID
	AssessorID    common.AssessorID
	Accepted      bool
	SequenceIndex common.SequenceIndex
}

type StakeDeposited struct {
	AssessorID common.AssessorID
	Amount     common.TokenAmount
	Total      common.TokenAmount
}

type StakeWithdrawn struct {
	AssessorID common.AssessorID
	Amount     common.TokenAmount
}

type RewardsWithdrawn struct {
	AssessorID   common.AssessorID
	FromIndex    common.SequenceIndex
	ToIndex      common.SequenceIndex
	RewardUnits  uint64
	CursorAfter  common.SequenceIndex
}

type FraudRootSubmitted struct {
	RootIndex int
	Root      crypto.Hash
}

type FraudProcessed struct {
	AssessorID  common.AssessorID
	Burned      common.TokenAmount
	CursorAfter common.SequenceIndex
	FraudCount  uint32
}

type VotingPeriodChanged struct {
	VotingPeriod covertime.Duration
}

// Bus dispatches events to registered handlers. Handlers run synchronously
// on the publishing goroutine; a handler must not call back into the engine.
type Bus struct {
	subscribers map[EventType]map[SubscriberID]HandlerFunc
	lastSubID   SubscriberID
	mu          sync.RWMutex
}

func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[EventType]map[SubscriberID]HandlerFunc),
	}
}

// SubscribeFunc registers a handler for an event type and returns the id to
// unsubscribe with.
func (b *Bus) SubscribeFunc(eventType EventType, handler HandlerFunc) SubscriberID {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastSubID++
	id := b.lastSubID
	if b.subscribers[eventType] == nil {
		b.subscribers[eventType] = make(map[SubscriberID]HandlerFunc)
	}
	b.subscribers[eventType][id] = handler
	return id
}

// Unsubscribe removes a handler registration.
func (b *Bus) Unsubscribe(eventType EventType, id SubscriberID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers[eventType], id)
}

// Publish delivers the event to every handler registered for its type.
func (b *Bus) Publish(eventType EventType, data any) {
	b.mu.RLock()
	handlers := make([]HandlerFunc, 0, len(b.subscribers[eventType]))
	for _, h := range b.subscribers[eventType] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	evt := NewEvent(eventType, data)
	for _, h := range handlers {
		h(evt)
	}
}
