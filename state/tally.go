package state

import (
	"fmt"

	"github.com/calehh/collector-dao/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

func (s *State) GetTally(id uint64) (types.Tally, error) {
	if t, ok := s.tallies[id]; ok {
		return *t, nil
	}
	val, err := s.get(fmt.Sprintf(KeyTally, id))
	if err != nil || val == nil {
		return types.Tally{}, err
	}
	t := new(types.Tally)
	if err = rlp.DecodeBytes(val, t); err != nil {
		return types.Tally{}, err
	}
	s.tallies[id] = t
	return *t, nil
}

// GetReceipt reports whether voter voted on proposal id and how.
func (s *State) GetReceipt(id uint64, voter common.Address) (types.Receipt, error) {
	k := receiptKey{proposal: id, voter: voter}
	if r, ok := s.receipts[k]; ok {
		return *r, nil
	}
	val, err := s.get(fmt.Sprintf(KeyReceipt, id, voter[:]))
	if err != nil || val == nil {
		return types.Receipt{}, err
	}
	r := new(types.Receipt)
	if err = rlp.DecodeBytes(val, r); err != nil {
		return types.Receipt{}, err
	}
	s.receipts[k] = r
	return *r, nil
}

// CastVote records one vote of weight 1. Checks run in a fixed order: current
// membership, voting window, membership at creation time, then duplicates.
func (s *State) CastVote(voter common.Address, id uint64, support types.VoteType, reason string) (*types.EventCastVote, error) {
	if !support.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidVoteType, support)
	}
	m, err := s.GetMember(voter)
	if err != nil {
		return nil, err
	}
	if m == nil || !m.IsMember {
		return nil, ErrNotMember
	}
	p, err := s.GetProposal(id)
	if err == ErrProposalNotFound {
		return nil, ErrProposalNotActive
	}
	if err != nil {
		return nil, err
	}
	now := s.Now()
	if now < p.ActiveAt || now >= p.VotingDeadline {
		return nil, ErrProposalNotActive
	}
	if m.MemberSince > p.CreatedAt {
		return nil, ErrVoterIneligible
	}
	receipt, err := s.GetReceipt(id, voter)
	if err != nil {
		return nil, err
	}
	if receipt.HasVoted {
		return nil, ErrAlreadyVoted
	}
	t, err := s.GetTally(id)
	if err != nil {
		return nil, err
	}
	switch support {
	case types.VoteFor:
		t.For += 1
	case types.VoteAgainst:
		t.Against += 1
	case types.VoteAbstain:
		t.Abstain += 1
	}
	s.tallies[id] = &t
	s.modTallies[id] = struct{}{}
	k := receiptKey{proposal: id, voter: voter}
	s.receipts[k] = &types.Receipt{HasVoted: true, Support: support}
	s.modReceipts[k] = struct{}{}

	s.logger.Debug("cast vote", "proposal", id, "voter", voter.Hex(), "support", support.String())
	return &types.EventCastVote{
		Voter:    voter.Hex(),
		Proposal: id,
		Support:  support,
		Reason:   reason,
	}, nil
}
