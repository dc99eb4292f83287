package state

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/calehh/collector-dao/types"
)

func (s *State) QueueProposal(id uint64) (*types.EventProposalQueued, error) {
	p, err := s.GetProposal(id)
	if errors.Is(err, ErrProposalNotFound) {
		return nil, ErrNotSucceeded
	}
	if err != nil {
		return nil, err
	}
	st, err := s.ProposalState(id)
	if err != nil {
		return nil, err
	}
	if st != types.ProposalStateSucceeded {
		return nil, ErrNotSucceeded
	}
	now := s.Now()
	np := p.Clone()
	np.Queued = true
	np.QueuedAt = now
	np.Eta = now + s.params.TimelockDelay
	s.putProposal(np)
	s.logger.Debug("queue proposal", "proposal", id, "eta", np.Eta)
	return &types.EventProposalQueued{Proposal: id, Eta: np.Eta}, nil
}

// ExecuteProposal runs every action of a queued proposal whose timelock has
// passed. Either all actions take effect and the proposal is marked executed,
// or nothing changes.
func (s *State) ExecuteProposal(ctx context.Context, id uint64) ([]*types.EventExecuteTransaction, *types.EventProposalExecuted, error) {
	p, err := s.GetProposal(id)
	if errors.Is(err, ErrProposalNotFound) {
		return nil, nil, ErrNotQueuedOrExpired
	}
	if err != nil {
		return nil, nil, err
	}
	now := s.Now()
	if now < p.Eta {
		return nil, nil, ErrNotReady
	}
	st, err := s.ProposalState(id)
	if err != nil {
		return nil, nil, err
	}
	if st != types.ProposalStateQueued {
		return nil, nil, ErrNotQueuedOrExpired
	}
	if s.executor == nil {
		return nil, nil, ErrNoExecutor
	}

	c := s.Clone()
	events := make([]*types.EventExecuteTransaction, 0, len(p.Actions))
	for i, action := range p.Actions {
		if err = c.debit(action.Value); err != nil {
			return nil, nil, fmt.Errorf("action %d: %w", i, err)
		}
		returned, err := c.executor.Execute(ctx, c, action.Clone())
		if err != nil {
			s.logger.Info("proposal action failed", "proposal", id, "action", i, "err", err)
			return nil, nil, fmt.Errorf("%w: action %d: %v", ErrActionExecutionFailed, i, err)
		}
		if returned != nil && returned.Cmp(action.Value) > 0 {
			return nil, nil, fmt.Errorf("%w: action %d returned more than it was sent", ErrActionExecutionFailed, i)
		}
		c.credit(returned)
		events = append(events, &types.EventExecuteTransaction{
			Proposal: id,
			Index:    i,
			Target:   action.Target.Hex(),
			Value:    new(big.Int).Set(action.Value),
			Calldata: action.Calldata,
		})
	}
	np := p.Clone()
	np.Executed = true
	c.putProposal(np)
	s.adopt(c)
	s.logger.Info("proposal executed", "proposal", id, "actions", len(events))
	return events, &types.EventProposalExecuted{Proposal: id, Actions: len(events)}, nil
}
