package handler

import (
	"context"

	daocrypto "github.com/calehh/collector-dao/crypto"
	"github.com/calehh/collector-dao/state"
	"github.com/calehh/collector-dao/tx"
	"github.com/calehh/collector-dao/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type VoteTxHandler struct {
	*baseHandler
}

func NewVoteTxHandler(logger cmtlog.Logger) (h *VoteTxHandler) {
	h = &VoteTxHandler{}
	h.baseHandler = newBaseHandler(logger, "voteTx", h.apply)
	return
}

func (h *VoteTxHandler) apply(ctx context.Context, st *state.State, btx *tx.DAOTx) ([]abcitypes.Event, error) {
	wtx, ok := btx.Tx.(*tx.VoteTx)
	if !ok {
		return nil, tx.ErrUnmatchedTxType
	}
	event, err := st.CastVote(btx.Sender, wtx.Proposal, types.VoteType(wtx.Support), wtx.Reason)
	if err != nil {
		return nil, err
	}
	return []abcitypes.Event{types.EncodeEventCastVote(event)}, nil
}

// VoteBySigTxHandler relays a ballot signed offline. The envelope sender pays
// for the relay; the vote belongs to the ballot signer.
type VoteBySigTxHandler struct {
	*baseHandler
}

func NewVoteBySigTxHandler(logger cmtlog.Logger) (h *VoteBySigTxHandler) {
	h = &VoteBySigTxHandler{}
	h.baseHandler = newBaseHandler(logger, "voteBySigTx", h.apply)
	return
}

func (h *VoteBySigTxHandler) apply(ctx context.Context, st *state.State, btx *tx.DAOTx) ([]abcitypes.Event, error) {
	wtx, ok := btx.Tx.(*tx.VoteBySigTx)
	if !ok {
		return nil, tx.ErrUnmatchedTxType
	}
	sig := daocrypto.Signature{V: wtx.V, R: wtx.R, S: wtx.S}
	event, err := st.CastVoteBySig(wtx.Proposal, types.VoteType(wtx.Support), sig)
	if err != nil {
		return nil, err
	}
	return []abcitypes.Event{types.EncodeEventCastVote(event)}, nil
}

type VoteBySigBatchTxHandler struct {
	*baseHandler
}

func NewVoteBySigBatchTxHandler(logger cmtlog.Logger) (h *VoteBySigBatchTxHandler) {
	h = &VoteBySigBatchTxHandler{}
	h.baseHandler = newBaseHandler(logger, "voteBySigBatchTx", h.apply)
	return
}

func (h *VoteBySigBatchTxHandler) apply(ctx context.Context, st *state.State, btx *tx.DAOTx) ([]abcitypes.Event, error) {
	wtx, ok := btx.Tx.(*tx.VoteBySigBatchTx)
	if !ok {
		return nil, tx.ErrUnmatchedTxType
	}
	n := len(wtx.Proposals)
	if len(wtx.Supports) != n || len(wtx.Vs) != n || len(wtx.Rs) != n || len(wtx.Ss) != n {
		return nil, state.ErrMalformedBatch
	}
	supports := make([]types.VoteType, n)
	sigs := make([]daocrypto.Signature, n)
	for i := range wtx.Proposals {
		supports[i] = types.VoteType(wtx.Supports[i])
		sigs[i] = daocrypto.Signature{V: wtx.Vs[i], R: wtx.Rs[i], S: wtx.Ss[i]}
	}
	events, err := st.CastVoteBySigBatch(wtx.Proposals, supports, sigs)
	if err != nil {
		return nil, err
	}
	res := make([]abcitypes.Event, len(events))
	for i, event := range events {
		res[i] = types.EncodeEventCastVote(event)
	}
	return res, nil
}
