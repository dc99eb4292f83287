package state

import (
	"fmt"

	daocrypto "github.com/calehh/collector-dao/crypto"
	"github.com/calehh/collector-dao/types"
	"github.com/ethereum/go-ethereum/common"
)

func (s *State) recoverVoter(id uint64, support types.VoteType, sig daocrypto.Signature) (common.Address, error) {
	voter, err := daocrypto.RecoverBallotSigner(s.params.Domain, id, uint8(support), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return voter, nil
}

// CastVoteBySig casts a ballot signed offline. The voter is whoever signed it.
func (s *State) CastVoteBySig(id uint64, support types.VoteType, sig daocrypto.Signature) (*types.EventCastVote, error) {
	if !support.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidVoteType, support)
	}
	voter, err := s.recoverVoter(id, support, sig)
	if err != nil {
		return nil, err
	}
	return s.CastVote(voter, id, support, "")
}

// CastVoteBySigBatch casts every ballot or none of them. The first failing
// entry aborts the batch and its index is part of the error.
func (s *State) CastVoteBySigBatch(ids []uint64, supports []types.VoteType, sigs []daocrypto.Signature) ([]*types.EventCastVote, error) {
	if len(ids) != len(supports) || len(ids) != len(sigs) {
		return nil, fmt.Errorf("%w: %d ids, %d supports, %d signatures", ErrMalformedBatch, len(ids), len(supports), len(sigs))
	}
	c := s.Clone()
	events := make([]*types.EventCastVote, 0, len(ids))
	for i := range ids {
		event, err := c.CastVoteBySig(ids[i], supports[i], sigs[i])
		if err != nil {
			return nil, fmt.Errorf("ballot %d: %w", i, err)
		}
		events = append(events, event)
	}
	s.adopt(c)
	return events, nil
}
