package types

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	EventContributionType       = "contribution"
	EventCreateProposalType     = "create_proposal"
	EventCastVoteType           = "cast_vote"
	EventProposalQueuedType     = "proposal_queued"
	EventExecuteTransactionType = "execute_transaction"
	EventProposalExecutedType   = "proposal_executed"
)

type EventContribution struct {
	Member   string   `json:"member"`
	Amount   *big.Int `json:"amount"`
	Total    *big.Int `json:"total"`
	IsMember bool     `json:"isMember"`
}

func EncodeEventContribution(event *EventContribution) abci.Event {
	return abci.Event{
		Type: EventContributionType,
		Attributes: []abci.EventAttribute{
			{Key: "member", Value: event.Member, Index: true},
			{Key: "amount", Value: event.Amount.String(), Index: false},
			{Key: "total", Value: event.Total.String(), Index: false},
			{Key: "isMember", Value: strconv.FormatBool(event.IsMember), Index: false},
		},
	}
}

func DecodeEventContribution(originEvent abci.Event) *EventContribution {
	event := &EventContribution{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "member":
			event.Member = v.Value
		case "amount":
			amount, ok := new(big.Int).SetString(v.Value, 10)
			if !ok {
				return nil
			}
			event.Amount = amount
		case "total":
			total, ok := new(big.Int).SetString(v.Value, 10)
			if !ok {
				return nil
			}
			event.Total = total
		case "isMember":
			isMember, err := strconv.ParseBool(v.Value)
			if err != nil {
				return nil
			}
			event.IsMember = isMember
		}
	}
	return event
}

type EventCreateProposal struct {
	Proposal       uint64   `json:"proposal"`
	Proposer       string   `json:"proposer"`
	Targets        []string `json:"targets"`
	Values         []string `json:"values"`
	Calldatas      []string `json:"calldatas"`
	Description    string   `json:"description"`
	CreatedAt      uint64   `json:"createdAt"`
	ActiveAt       uint64   `json:"activeAt"`
	VotingDeadline uint64   `json:"votingDeadline"`
	MemberSnapshot uint64   `json:"memberSnapshot"`
}

func NewEventCreateProposal(p *Proposal) *EventCreateProposal {
	event := &EventCreateProposal{
		Proposal:       p.Id,
		Proposer:       p.Proposer.Hex(),
		Targets:        make([]string, len(p.Actions)),
		Values:         make([]string, len(p.Actions)),
		Calldatas:      make([]string, len(p.Actions)),
		Description:    p.Description,
		CreatedAt:      p.CreatedAt,
		ActiveAt:       p.ActiveAt,
		VotingDeadline: p.VotingDeadline,
		MemberSnapshot: p.MemberSnapshot,
	}
	for i, a := range p.Actions {
		event.Targets[i] = a.Target.Hex()
		event.Values[i] = a.Value.String()
		event.Calldatas[i] = hexutil.Encode(a.Calldata)
	}
	return event
}

func EncodeEventCreateProposal(event *EventCreateProposal) abci.Event {
	return abci.Event{
		Type: EventCreateProposalType,
		Attributes: []abci.EventAttribute{
			{Key: "proposal", Value: fmt.Sprintf("%v", event.Proposal), Index: true},
			{Key: "proposer", Value: event.Proposer, Index: true},
			{Key: "targets", Value: strings.Join(event.Targets, ","), Index: false},
			{Key: "values", Value: strings.Join(event.Values, ","), Index: false},
			{Key: "calldatas", Value: strings.Join(event.Calldatas, ","), Index: false},
			{Key: "description", Value: event.Description, Index: false},
			{Key: "createdAt", Value: fmt.Sprintf("%v", event.CreatedAt), Index: false},
			{Key: "activeAt", Value: fmt.Sprintf("%v", event.ActiveAt), Index: false},
			{Key: "votingDeadline", Value: fmt.Sprintf("%v", event.VotingDeadline), Index: false},
			{Key: "memberSnapshot", Value: fmt.Sprintf("%v", event.MemberSnapshot), Index: false},
		},
	}
}

func DecodeEventCreateProposal(originEvent abci.Event) *EventCreateProposal {
	event := &EventCreateProposal{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Proposal = proposal
		case "proposer":
			event.Proposer = v.Value
		case "targets":
			event.Targets = splitList(v.Value)
		case "values":
			event.Values = splitList(v.Value)
		case "calldatas":
			event.Calldatas = splitList(v.Value)
		case "description":
			event.Description = v.Value
		case "createdAt":
			createdAt, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.CreatedAt = createdAt
		case "memberSnapshot":
			snapshot, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.MemberSnapshot = snapshot
		case "activeAt":
			activeAt, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.ActiveAt = activeAt
		case "votingDeadline":
			deadline, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.VotingDeadline = deadline
		}
	}
	if len(event.Targets) != len(event.Values) || len(event.Targets) != len(event.Calldatas) {
		return nil
	}
	return event
}

type EventCastVote struct {
	Voter    string   `json:"voter"`
	Proposal uint64   `json:"proposal"`
	Support  VoteType `json:"support"`
	Reason   string   `json:"reason"`
}

func EncodeEventCastVote(event *EventCastVote) abci.Event {
	return abci.Event{
		Type: EventCastVoteType,
		Attributes: []abci.EventAttribute{
			{Key: "voter", Value: event.Voter, Index: true},
			{Key: "proposal", Value: fmt.Sprintf("%v", event.Proposal), Index: true},
			{Key: "support", Value: fmt.Sprintf("%v", uint8(event.Support)), Index: false},
			{Key: "reason", Value: event.Reason, Index: false},
		},
	}
}

func DecodeEventCastVote(originEvent abci.Event) *EventCastVote {
	event := &EventCastVote{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "voter":
			event.Voter = v.Value
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Proposal = proposal
		case "support":
			support, err := strconv.ParseUint(v.Value, 10, 8)
			if err != nil {
				return nil
			}
			event.Support = VoteType(support)
		case "reason":
			event.Reason = v.Value
		}
	}
	return event
}

type EventProposalQueued struct {
	Proposal uint64 `json:"proposal"`
	Eta      uint64 `json:"eta"`
}

func EncodeEventProposalQueued(event *EventProposalQueued) abci.Event {
	return abci.Event{
		Type: EventProposalQueuedType,
		Attributes: []abci.EventAttribute{
			{Key: "proposal", Value: fmt.Sprintf("%v", event.Proposal), Index: true},
			{Key: "eta", Value: fmt.Sprintf("%v", event.Eta), Index: false},
		},
	}
}

func DecodeEventProposalQueued(originEvent abci.Event) *EventProposalQueued {
	event := &EventProposalQueued{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Proposal = proposal
		case "eta":
			eta, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Eta = eta
		}
	}
	return event
}

type EventExecuteTransaction struct {
	Proposal uint64   `json:"proposal"`
	Index    int      `json:"index"`
	Target   string   `json:"target"`
	Value    *big.Int `json:"value"`
	Calldata []byte   `json:"calldata"`
}

func EncodeEventExecuteTransaction(event *EventExecuteTransaction) abci.Event {
	return abci.Event{
		Type: EventExecuteTransactionType,
		Attributes: []abci.EventAttribute{
			{Key: "proposal", Value: fmt.Sprintf("%v", event.Proposal), Index: true},
			{Key: "index", Value: strconv.Itoa(event.Index), Index: false},
			{Key: "target", Value: event.Target, Index: true},
			{Key: "value", Value: event.Value.String(), Index: false},
			{Key: "calldata", Value: hexutil.Encode(event.Calldata), Index: false},
		},
	}
}

func DecodeEventExecuteTransaction(originEvent abci.Event) *EventExecuteTransaction {
	event := &EventExecuteTransaction{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Proposal = proposal
		case "index":
			index, err := strconv.Atoi(v.Value)
			if err != nil {
				return nil
			}
			event.Index = index
		case "target":
			if !common.IsHexAddress(v.Value) {
				return nil
			}
			event.Target = v.Value
		case "value":
			value, ok := new(big.Int).SetString(v.Value, 10)
			if !ok {
				return nil
			}
			event.Value = value
		case "calldata":
			dat, err := hexutil.Decode(v.Value)
			if err != nil {
				return nil
			}
			event.Calldata = dat
		}
	}
	return event
}

type EventProposalExecuted struct {
	Proposal uint64 `json:"proposal"`
	Actions  int    `json:"actions"`
}

func EncodeEventProposalExecuted(event *EventProposalExecuted) abci.Event {
	return abci.Event{
		Type: EventProposalExecutedType,
		Attributes: []abci.EventAttribute{
			{Key: "proposal", Value: fmt.Sprintf("%v", event.Proposal), Index: true},
			{Key: "actions", Value: strconv.Itoa(event.Actions), Index: false},
		},
	}
}

func DecodeEventProposalExecuted(originEvent abci.Event) *EventProposalExecuted {
	event := &EventProposalExecuted{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Proposal = proposal
		case "actions":
			actions, err := strconv.Atoi(v.Value)
			if err != nil {
				return nil
			}
			event.Actions = actions
		}
	}
	return event
}

func splitList(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}
