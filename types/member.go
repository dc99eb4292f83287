package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Member is a contributor record. It is created on the first contribution
// and never deleted.
type Member struct {
	Address     common.Address `json:"address"`
	Contributed *big.Int       `json:"contributed"`
	IsMember    bool           `json:"is_member"`
	MemberSince uint64         `json:"member_since"`
}

func (m *Member) Clone() *Member {
	n := *m
	n.Contributed = new(big.Int)
	if m.Contributed != nil {
		n.Contributed.Set(m.Contributed)
	}
	return &n
}
