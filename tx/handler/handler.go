package handler

import (
	"context"

	"github.com/calehh/collector-dao/state"
	"github.com/calehh/collector-dao/tx"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type TxHandler interface {
	Check(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ResponseCheckTx, err error)
	Prepare(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ExecTxResult, err error)
	Process(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ExecTxResult, err error)
}

type applyFunc func(ctx context.Context, st *state.State, btx *tx.DAOTx) ([]abcitypes.Event, error)

// baseHandler runs an operation against the state and bumps the sender nonce
// when it succeeds. The caller owns atomicity: a failed operation leaves st
// in an undefined state and must be discarded.
type baseHandler struct {
	logger  cmtlog.Logger
	name    string
	applyTx applyFunc
}

func (h *baseHandler) Check(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	_, err1 := h.handle(ctx, st.Clone(), btx)
	if err1 != nil {
		h.logger.Info("CheckTx fail", "tx", h.name, "err", err1)
		res.Code = 1
		res.Log = err1.Error()
	}
	return
}

func (h *baseHandler) handle(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ExecTxResult, err error) {
	events, err := h.applyTx(ctx, st, btx)
	if err != nil {
		return nil, err
	}
	if err = st.IncNonce(btx.Sender); err != nil {
		return nil, err
	}
	res = &abcitypes.ExecTxResult{Events: events}
	return
}

func (h *baseHandler) Prepare(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *baseHandler) Process(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func newBaseHandler(logger cmtlog.Logger, name string, apply applyFunc) *baseHandler {
	return &baseHandler{
		logger:  logger.With("module", name),
		name:    name,
		applyTx: apply,
	}
}

// NewTxHandlers returns one handler per transaction type.
func NewTxHandlers(logger cmtlog.Logger) map[tx.DAOTxType]TxHandler {
	return map[tx.DAOTxType]TxHandler{
		tx.DAOTxTypeContribute:     NewContributeTxHandler(logger),
		tx.DAOTxTypePropose:        NewProposeTxHandler(logger),
		tx.DAOTxTypeVote:           NewVoteTxHandler(logger),
		tx.DAOTxTypeVoteBySig:      NewVoteBySigTxHandler(logger),
		tx.DAOTxTypeVoteBySigBatch: NewVoteBySigBatchTxHandler(logger),
		tx.DAOTxTypeQueue:          NewQueueTxHandler(logger),
		tx.DAOTxTypeExecute:        NewExecuteTxHandler(logger),
	}
}
