package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Action is one call a proposal performs when executed.
type Action struct {
	Target   common.Address `json:"target"`
	Value    *big.Int       `json:"value"`
	Calldata []byte         `json:"calldata"`
}

func (a Action) Clone() Action {
	n := Action{Target: a.Target, Value: new(big.Int)}
	if a.Value != nil {
		n.Value.Set(a.Value)
	}
	if a.Calldata != nil {
		n.Calldata = common.CopyBytes(a.Calldata)
	}
	return n
}

type Proposal struct {
	Id             uint64         `json:"id"`
	Proposer       common.Address `json:"proposer"`
	Actions        []Action       `json:"actions"`
	Description    string         `json:"description"`
	CreatedAt      uint64         `json:"created_at"`
	ActiveAt       uint64         `json:"active_at"`
	VotingDeadline uint64         `json:"voting_deadline"`
	MemberSnapshot uint64         `json:"member_snapshot"`
	Queued         bool           `json:"queued"`
	QueuedAt       uint64         `json:"queued_at"`
	Eta            uint64         `json:"eta"`
	Executed       bool           `json:"executed"`
}

func (p *Proposal) Clone() *Proposal {
	n := *p
	n.Actions = make([]Action, len(p.Actions))
	for i := range p.Actions {
		n.Actions[i] = p.Actions[i].Clone()
	}
	return &n
}

// TotalValue is the sum of the values the proposal draws from the treasury.
func (p *Proposal) TotalValue() *big.Int {
	total := new(big.Int)
	for _, a := range p.Actions {
		if a.Value != nil {
			total.Add(total, a.Value)
		}
	}
	return total
}

// Tally holds the running vote counters of one proposal. Every vote weighs 1.
type Tally struct {
	For     uint64 `json:"for"`
	Against uint64 `json:"against"`
	Abstain uint64 `json:"abstain"`
}

func (t Tally) Total() uint64 {
	return t.For + t.Against + t.Abstain
}

type Receipt struct {
	HasVoted bool     `json:"has_voted"`
	Support  VoteType `json:"support"`
}

type VoteType uint8

const (
	VoteAgainst VoteType = 0
	VoteFor     VoteType = 1
	VoteAbstain VoteType = 2
)

func (v VoteType) Valid() bool {
	return v <= VoteAbstain
}

func (v VoteType) String() string {
	switch v {
	case VoteAgainst:
		return "against"
	case VoteFor:
		return "for"
	case VoteAbstain:
		return "abstain"
	}
	return fmt.Sprintf("vote(%d)", uint8(v))
}

type ProposalState uint8

const (
	ProposalStatePending   ProposalState = 0
	ProposalStateActive    ProposalState = 1
	ProposalStateDefeated  ProposalState = 2
	ProposalStateSucceeded ProposalState = 3
	ProposalStateQueued    ProposalState = 4
	ProposalStateExpired   ProposalState = 5
	ProposalStateExecuted  ProposalState = 6
)

var proposalStateNames = [...]string{
	"pending", "active", "defeated", "succeeded", "queued", "expired", "executed",
}

func (s ProposalState) String() string {
	if int(s) < len(proposalStateNames) {
		return proposalStateNames[s]
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Terminal reports whether no further transition can leave s.
func (s ProposalState) Terminal() bool {
	return s == ProposalStateDefeated || s == ProposalStateExpired || s == ProposalStateExecuted
}
