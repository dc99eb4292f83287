package handler

import (
	"context"

	"github.com/calehh/collector-dao/state"
	"github.com/calehh/collector-dao/tx"
	"github.com/calehh/collector-dao/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type ProposeTxHandler struct {
	*baseHandler
}

func NewProposeTxHandler(logger cmtlog.Logger) (h *ProposeTxHandler) {
	h = &ProposeTxHandler{}
	h.baseHandler = newBaseHandler(logger, "proposeTx", h.apply)
	return
}

func (h *ProposeTxHandler) apply(ctx context.Context, st *state.State, btx *tx.DAOTx) ([]abcitypes.Event, error) {
	wtx, ok := btx.Tx.(*tx.ProposeTx)
	if !ok {
		return nil, tx.ErrUnmatchedTxType
	}
	p, err := st.CreateProposal(btx.Sender, wtx.Targets, wtx.Values, wtx.CalldataBytes(), wtx.Description)
	if err != nil {
		return nil, err
	}
	h.logger.Info("proposal created", "proposal", p.Id, "proposer", p.Proposer.Hex())
	return []abcitypes.Event{types.EncodeEventCreateProposal(types.NewEventCreateProposal(p))}, nil
}
