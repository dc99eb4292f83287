package handler

import (
	"context"

	"github.com/calehh/collector-dao/state"
	"github.com/calehh/collector-dao/tx"
	"github.com/calehh/collector-dao/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type ContributeTxHandler struct {
	*baseHandler
}

func NewContributeTxHandler(logger cmtlog.Logger) (h *ContributeTxHandler) {
	h = &ContributeTxHandler{}
	h.baseHandler = newBaseHandler(logger, "contributeTx", h.apply)
	return
}

func (h *ContributeTxHandler) apply(ctx context.Context, st *state.State, btx *tx.DAOTx) ([]abcitypes.Event, error) {
	wtx, ok := btx.Tx.(*tx.ContributeTx)
	if !ok {
		return nil, tx.ErrUnmatchedTxType
	}
	event, err := st.Contribute(btx.Sender, wtx.Amount)
	if err != nil {
		return nil, err
	}
	return []abcitypes.Event{types.EncodeEventContribution(event)}, nil
}
