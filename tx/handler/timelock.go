package handler

import (
	"context"

	"github.com/calehh/collector-dao/state"
	"github.com/calehh/collector-dao/tx"
	"github.com/calehh/collector-dao/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type QueueTxHandler struct {
	*baseHandler
}

func NewQueueTxHandler(logger cmtlog.Logger) (h *QueueTxHandler) {
	h = &QueueTxHandler{}
	h.baseHandler = newBaseHandler(logger, "queueTx", h.apply)
	return
}

func (h *QueueTxHandler) apply(ctx context.Context, st *state.State, btx *tx.DAOTx) ([]abcitypes.Event, error) {
	wtx, ok := btx.Tx.(*tx.QueueTx)
	if !ok {
		return nil, tx.ErrUnmatchedTxType
	}
	event, err := st.QueueProposal(wtx.Proposal)
	if err != nil {
		return nil, err
	}
	return []abcitypes.Event{types.EncodeEventProposalQueued(event)}, nil
}

type ExecuteTxHandler struct {
	*baseHandler
}

func NewExecuteTxHandler(logger cmtlog.Logger) (h *ExecuteTxHandler) {
	h = &ExecuteTxHandler{}
	h.baseHandler = newBaseHandler(logger, "executeTx", h.apply)
	return
}

func (h *ExecuteTxHandler) apply(ctx context.Context, st *state.State, btx *tx.DAOTx) ([]abcitypes.Event, error) {
	wtx, ok := btx.Tx.(*tx.ExecuteTx)
	if !ok {
		return nil, tx.ErrUnmatchedTxType
	}
	txEvents, done, err := st.ExecuteProposal(ctx, wtx.Proposal)
	if err != nil {
		return nil, err
	}
	events := make([]abcitypes.Event, 0, len(txEvents)+1)
	for _, event := range txEvents {
		events = append(events, types.EncodeEventExecuteTransaction(event))
	}
	events = append(events, types.EncodeEventProposalExecuted(done))
	return events, nil
}
