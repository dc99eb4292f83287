package state

import (
	"math/big"
)

type StateHeader struct {
	ChainId       string
	Height        uint64
	Time          uint64
	ProposalCount uint64
	MemberCount   uint64
	Treasury      *big.Int
	RootHash      []byte
	Hash          []byte
}

func (h *StateHeader) Clone() *StateHeader {
	n := *h
	n.Treasury = new(big.Int)
	if h.Treasury != nil {
		n.Treasury.Set(h.Treasury)
	}
	if h.RootHash != nil {
		n.RootHash = append([]byte(nil), h.RootHash...)
	}
	if h.Hash != nil {
		n.Hash = append([]byte(nil), h.Hash...)
	}
	return &n
}
