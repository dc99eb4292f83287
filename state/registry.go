package state

import (
	"fmt"
	"math/big"

	"github.com/calehh/collector-dao/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

func (s *State) ProposalCount() uint64 {
	return s.header.ProposalCount
}

func (s *State) GetProposal(id uint64) (*types.Proposal, error) {
	if id == 0 || id > s.header.ProposalCount {
		return nil, ErrProposalNotFound
	}
	if p, ok := s.proposals[id]; ok {
		return p, nil
	}
	val, err := s.get(fmt.Sprintf(KeyProposal, id))
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, ErrProposalNotFound
	}
	p := new(types.Proposal)
	if err = rlp.DecodeBytes(val, p); err != nil {
		return nil, err
	}
	s.proposals[id] = p
	return p, nil
}

func (s *State) putProposal(p *types.Proposal) {
	s.proposals[p.Id] = p
	s.modProposals[p.Id] = struct{}{}
}

// CreateProposal registers a proposal from a current member and returns its
// record. Ids start at 1 and grow by one.
func (s *State) CreateProposal(proposer common.Address, targets []common.Address, values []*big.Int, calldatas [][]byte, description string) (*types.Proposal, error) {
	ok, err := s.IsMember(proposer)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotMember
	}
	n := len(targets)
	if n == 0 || n != len(values) || n != len(calldatas) {
		return nil, fmt.Errorf("%w: %d targets, %d values, %d calldatas", ErrMalformedProposal, len(targets), len(values), len(calldatas))
	}
	actions := make([]types.Action, n)
	for i := range targets {
		if values[i] == nil || values[i].Sign() < 0 {
			return nil, fmt.Errorf("%w: action %d value", ErrMalformedProposal, i)
		}
		actions[i] = types.Action{
			Target:   targets[i],
			Value:    new(big.Int).Set(values[i]),
			Calldata: common.CopyBytes(calldatas[i]),
		}
	}
	now := s.Now()
	activeAt := now + s.params.VotingDelay
	p := &types.Proposal{
		Id:             s.header.ProposalCount + 1,
		Proposer:       proposer,
		Actions:        actions,
		Description:    description,
		CreatedAt:      now,
		ActiveAt:       activeAt,
		VotingDeadline: activeAt + s.params.VotingPeriod,
		MemberSnapshot: s.header.MemberCount,
	}
	s.header.ProposalCount = p.Id
	s.putProposal(p)
	s.logger.Debug("create proposal", "proposal", p.Id, "proposer", proposer.Hex(), "actions", n)
	return p, nil
}
