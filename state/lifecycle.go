package state

import (
	"github.com/calehh/collector-dao/types"
)

// QuorumReached reports whether at least a quarter of the snapshot took part.
func QuorumReached(t types.Tally, memberSnapshot uint64) bool {
	return t.Total()*4 >= memberSnapshot
}

func VoteSucceeded(t types.Tally, memberSnapshot uint64) bool {
	return QuorumReached(t, memberSnapshot) && t.For > t.Against
}

// Lifecycle derives the state of p at time now. Only the queue and executed
// flags are stored; everything else follows from the timestamps and the tally.
func Lifecycle(p *types.Proposal, t types.Tally, now uint64, gracePeriod uint64) types.ProposalState {
	switch {
	case p.Executed:
		return types.ProposalStateExecuted
	case p.Queued:
		if now >= p.Eta+gracePeriod {
			return types.ProposalStateExpired
		}
		return types.ProposalStateQueued
	case now < p.ActiveAt:
		return types.ProposalStatePending
	case now < p.VotingDeadline:
		return types.ProposalStateActive
	case VoteSucceeded(t, p.MemberSnapshot):
		return types.ProposalStateSucceeded
	default:
		return types.ProposalStateDefeated
	}
}

func (s *State) ProposalState(id uint64) (types.ProposalState, error) {
	p, err := s.GetProposal(id)
	if err != nil {
		return 0, err
	}
	t, err := s.GetTally(id)
	if err != nil {
		return 0, err
	}
	return Lifecycle(p, t, s.Now(), s.params.GracePeriod), nil
}
