package state

import (
	"fmt"
	"math/big"

	"github.com/calehh/collector-dao/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// GetMember returns the contributor record of addr, or nil if addr never contributed.
func (s *State) GetMember(addr common.Address) (*types.Member, error) {
	if m, ok := s.members[addr]; ok {
		return m, nil
	}
	val, err := s.get(fmt.Sprintf(KeyMember, addr[:]))
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, nil
	}
	m := new(types.Member)
	if err = rlp.DecodeBytes(val, m); err != nil {
		return nil, err
	}
	s.members[addr] = m
	return m, nil
}

func (s *State) IsMember(addr common.Address) (bool, error) {
	m, err := s.GetMember(addr)
	if err != nil || m == nil {
		return false, err
	}
	return m.IsMember, nil
}

func (s *State) MemberCount() uint64 {
	return s.header.MemberCount
}

func (s *State) Treasury() *big.Int {
	return new(big.Int).Set(s.header.Treasury)
}

// Contribute adds amount to the treasury on behalf of addr. The first time the
// cumulative contribution reaches the threshold, addr becomes a member as of now.
func (s *State) Contribute(addr common.Address, amount *big.Int) (event *types.EventContribution, err error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	m, err := s.GetMember(addr)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = &types.Member{Address: addr, Contributed: new(big.Int)}
	} else {
		m = m.Clone()
	}
	m.Contributed.Add(m.Contributed, amount)
	if !m.IsMember && m.Contributed.Cmp(s.params.MembershipThreshold) >= 0 {
		m.IsMember = true
		m.MemberSince = s.Now()
		s.header.MemberCount += 1
		s.logger.Debug("new member", "member", addr.Hex(), "since", m.MemberSince)
	}
	s.members[addr] = m
	s.modMembers[addr] = struct{}{}
	s.header.Treasury.Add(s.header.Treasury, amount)

	event = &types.EventContribution{
		Member:   addr.Hex(),
		Amount:   new(big.Int).Set(amount),
		Total:    new(big.Int).Set(m.Contributed),
		IsMember: m.IsMember,
	}
	return
}

// debit takes amount out of the treasury.
func (s *State) debit(amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if s.header.Treasury.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s", ErrActionExecutionFailed, ReasonRevertedWithoutMessage)
	}
	s.header.Treasury.Sub(s.header.Treasury, amount)
	return nil
}

func (s *State) credit(amount *big.Int) {
	if amount != nil && amount.Sign() > 0 {
		s.header.Treasury.Add(s.header.Treasury, amount)
	}
}
