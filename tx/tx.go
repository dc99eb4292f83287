package tx

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// DAOTx is the signed envelope every operation travels in. Sig covers the
// JSON encoding of the envelope with Sig replaced by the chain id.
type DAOTx struct {
	Version uint8          `json:"version"`
	Type    DAOTxType      `json:"type"`
	Nonce   uint64         `json:"nonce"`
	Sender  common.Address `json:"sender"`
	Tx      any            `json:"tx"`
	Sig     hexutil.Bytes  `json:"sig"`
}

type ContributeTx struct {
	Amount *big.Int `json:"amount"`
}

type ProposeTx struct {
	Targets     []common.Address `json:"targets"`
	Values      []*big.Int       `json:"values"`
	Calldatas   []hexutil.Bytes  `json:"calldatas"`
	Description string           `json:"description"`
}

func (p *ProposeTx) CalldataBytes() [][]byte {
	res := make([][]byte, len(p.Calldatas))
	for i, c := range p.Calldatas {
		res[i] = c
	}
	return res
}

type VoteTx struct {
	Proposal uint64 `json:"proposal"`
	Support  uint8  `json:"support"`
	Reason   string `json:"reason"`
}

type VoteBySigTx struct {
	Proposal uint64      `json:"proposal"`
	Support  uint8       `json:"support"`
	V        uint8       `json:"v"`
	R        common.Hash `json:"r"`
	S        common.Hash `json:"s"`
}

type VoteBySigBatchTx struct {
	Proposals []uint64      `json:"proposals"`
	Supports  []uint8       `json:"supports"`
	Vs        []uint8       `json:"vs"`
	Rs        []common.Hash `json:"rs"`
	Ss        []common.Hash `json:"ss"`
}

type QueueTx struct {
	Proposal uint64 `json:"proposal"`
}

type ExecuteTx struct {
	Proposal uint64 `json:"proposal"`
}

type daoTxTmpl[Tx any] struct {
	Version uint8          `json:"version"`
	Type    DAOTxType      `json:"type"`
	Nonce   uint64         `json:"nonce"`
	Sender  common.Address `json:"sender"`
	Tx      Tx             `json:"tx"`
	Sig     hexutil.Bytes  `json:"sig"`
}

func (tx *DAOTx) SigData(ext []byte) (dat []byte, err error) {
	ntx := *tx
	ntx.Sig = ext
	dat, err = json.Marshal(ntx)
	return
}

func parseDAOTxType(dat []byte) DAOTxType {
	var tx struct {
		Type DAOTxType `json:"type"`
	}
	err := json.Unmarshal(dat, &tx)
	if err != nil {
		return DAOTxTypeUnknown
	}
	return tx.Type
}

func unmarshalDAOTx[Tx any](dat []byte) (btx *DAOTx, err error) {
	var txt daoTxTmpl[Tx]
	err = json.Unmarshal(dat, &txt)
	if err != nil {
		return
	}
	if txt.Version > DAOTxVersion1 {
		return nil, ErrUnsupportedTxVersion
	}
	btx = new(DAOTx)
	btx.Version = txt.Version
	btx.Type = txt.Type
	btx.Nonce = txt.Nonce
	btx.Sender = txt.Sender
	btx.Tx = &txt.Tx
	btx.Sig = txt.Sig
	return
}

func UnmarshalDAOTx(dat []byte) (btx *DAOTx, err error) {
	tp := parseDAOTxType(dat)
	switch tp {
	case DAOTxTypeContribute:
		return unmarshalDAOTx[ContributeTx](dat)
	case DAOTxTypePropose:
		return unmarshalDAOTx[ProposeTx](dat)
	case DAOTxTypeVote:
		return unmarshalDAOTx[VoteTx](dat)
	case DAOTxTypeVoteBySig:
		return unmarshalDAOTx[VoteBySigTx](dat)
	case DAOTxTypeVoteBySigBatch:
		return unmarshalDAOTx[VoteBySigBatchTx](dat)
	case DAOTxTypeQueue:
		return unmarshalDAOTx[QueueTx](dat)
	case DAOTxTypeExecute:
		return unmarshalDAOTx[ExecuteTx](dat)
	default:
		err = ErrUnsupportedTxType
	}
	return
}

func MarshalDAOTx(btx *DAOTx) (dat []byte, err error) {
	return json.Marshal(btx)
}

// Signer signs the keccak256 digest of data.
type Signer interface {
	Address() common.Address
	Sign(data []byte) ([]byte, error)
}

// NewSignedTx builds and signs an envelope for body.
func NewSignedTx(signer Signer, chainId string, tp DAOTxType, nonce uint64, body any) (*DAOTx, error) {
	btx := &DAOTx{
		Version: DAOTxVersion1,
		Type:    tp,
		Nonce:   nonce,
		Sender:  signer.Address(),
		Tx:      body,
	}
	dat, err := btx.SigData([]byte(chainId))
	if err != nil {
		return nil, err
	}
	sig, err := signer.Sign(dat)
	if err != nil {
		return nil, err
	}
	btx.Sig = sig
	return btx, nil
}
