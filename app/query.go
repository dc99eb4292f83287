package app

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"math/big"
	"strings"

	"github.com/calehh/collector-dao/marketplace"
	"github.com/calehh/collector-dao/state"
	"github.com/calehh/collector-dao/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
)

var ErrReadOnlyStore = errors.New("read only store")

func (app *DAOApp) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	path := req.Path
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	q, ok := app.queriers[path]
	if !ok {
		res = &abcitypes.ResponseQuery{}
		res.Code = 404
		return
	}
	res, err = q.Query(ctx, req)
	return
}

type Querier interface {
	Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error)
}

// QuerierFunc adapts a function to Querier.
type QuerierFunc func(ctx context.Context, req *abcitypes.RequestQuery) (*abcitypes.ResponseQuery, error)

func (f QuerierFunc) Query(ctx context.Context, req *abcitypes.RequestQuery) (*abcitypes.ResponseQuery, error) {
	return f(ctx, req)
}

// EncodeId is the query data form of a proposal id.
func EncodeId(id uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, id)
}

func decodeId(data []byte) (uint64, bool) {
	if len(data) == 0 || len(data) > 8 {
		return 0, false
	}
	var id uint64
	for _, v := range data {
		id <<= 8
		id |= uint64(v)
	}
	return id, true
}

func respond(res *abcitypes.ResponseQuery, v any, height uint64, err error) {
	if err != nil {
		res.Code = 1
		res.Log = err.Error()
		return
	}
	res.Value, _ = json.Marshal(v)
	res.Height = int64(height)
}

func NewMemberQuerier(db *state.StateDB, logger cmtlog.Logger) Querier {
	return QuerierFunc(func(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
		res = &abcitypes.ResponseQuery{}
		if len(req.Data) != common.AddressLength {
			res.Code = 1
			return
		}
		m, height, err := db.GetMember(common.BytesToAddress(req.Data))
		respond(res, m, height, err)
		return res, nil
	})
}

func NewProposalQuerier(db *state.StateDB, logger cmtlog.Logger) Querier {
	return QuerierFunc(func(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
		res = &abcitypes.ResponseQuery{}
		id, ok := decodeId(req.Data)
		if !ok {
			res.Code = 1
			return
		}
		v, height, err := db.GetProposal(id)
		respond(res, v, height, err)
		return res, nil
	})
}

// NewReceiptQuerier answers for data holding an 8 byte proposal id followed
// by the voter address.
func NewReceiptQuerier(db *state.StateDB, logger cmtlog.Logger) Querier {
	return QuerierFunc(func(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
		res = &abcitypes.ResponseQuery{}
		if len(req.Data) != 8+common.AddressLength {
			res.Code = 1
			return
		}
		id := binary.BigEndian.Uint64(req.Data[:8])
		r, height, err := db.GetReceipt(id, common.BytesToAddress(req.Data[8:]))
		respond(res, r, height, err)
		return res, nil
	})
}

type NonceResult struct {
	Nonce uint64 `json:"nonce"`
}

func NewNonceQuerier(db *state.StateDB, logger cmtlog.Logger) Querier {
	return QuerierFunc(func(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
		res = &abcitypes.ResponseQuery{}
		if len(req.Data) != common.AddressLength {
			res.Code = 1
			return
		}
		n, height, err := db.GetNonce(common.BytesToAddress(req.Data))
		respond(res, &NonceResult{Nonce: n}, height, err)
		return res, nil
	})
}

type TreasuryResult struct {
	ChainId       string        `json:"chain_id"`
	Time          uint64        `json:"time"`
	Treasury      *big.Int      `json:"treasury"`
	MemberCount   uint64        `json:"member_count"`
	ProposalCount uint64        `json:"proposal_count"`
	Params        *state.Params `json:"params"`
}

func NewTreasuryQuerier(db *state.StateDB, logger cmtlog.Logger) Querier {
	return QuerierFunc(func(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
		res = &abcitypes.ResponseQuery{}
		h := db.Header()
		respond(res, &TreasuryResult{
			ChainId:       h.ChainId,
			Time:          h.Time,
			Treasury:      h.Treasury,
			MemberCount:   h.MemberCount,
			ProposalCount: h.ProposalCount,
			Params:        db.State().Params(),
		}, h.Height, nil)
		return res, nil
	})
}

// committedStore reads the executor key/value space of the committed state.
type committedStore struct {
	db     *state.StateDB
	height uint64
}

func (s *committedStore) Get(key []byte) ([]byte, error) {
	val, height, err := s.db.GetStore(key)
	s.height = height
	return val, err
}

func (s *committedStore) Set(key, value []byte) error {
	return ErrReadOnlyStore
}

var _ types.Store = &committedStore{}

type NftResult struct {
	Owner  common.Address  `json:"owner"`
	Listed bool            `json:"listed"`
	Price  *big.Int        `json:"price,omitempty"`
	Seller *common.Address `json:"seller,omitempty"`
}

// NewNftQuerier answers for data holding the marketplace address, the NFT
// contract address and the NFT id.
func NewNftQuerier(db *state.StateDB, logger cmtlog.Logger) Querier {
	return QuerierFunc(func(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
		res = &abcitypes.ResponseQuery{}
		if len(req.Data) <= 2*common.AddressLength {
			res.Code = 1
			return
		}
		market := marketplace.New(common.BytesToAddress(req.Data[:common.AddressLength]))
		nftContract := common.BytesToAddress(req.Data[common.AddressLength : 2*common.AddressLength])
		nftId := new(big.Int).SetBytes(req.Data[2*common.AddressLength:])

		store := &committedStore{db: db}
		owner, err := market.OwnerOf(store, nftContract, nftId)
		if err != nil {
			respond(res, nil, 0, err)
			return res, nil
		}
		result := &NftResult{Owner: owner}
		l, err := market.GetListing(store, nftContract, nftId)
		switch {
		case errors.Is(err, marketplace.ErrNotListed):
		case err != nil:
			respond(res, nil, 0, err)
			return res, nil
		default:
			result.Listed = true
			result.Price = l.Price
			result.Seller = &l.Seller
		}
		respond(res, result, store.height, nil)
		return res, nil
	})
}
