package app

import (
	"context"
	"errors"
	"time"

	"github.com/calehh/collector-dao/state"
	"github.com/calehh/collector-dao/tx"
	abcitypes "github.com/cometbft/cometbft/abci/types"
)

var (
	ErrUnexpectedTxProcess = errors.New("unexpected tx process")
	ErrUnsupportedTx       = errors.New("unsupported tx")
)

// getState starts the state of the block being built at blkTime. Block times
// are the host clock every lifecycle check reads.
func (app *DAOApp) getState(blkTime time.Time) (st *state.State, err error) {
	st = app.db.NewState()
	if err = st.SetTime(uint64(blkTime.Unix())); err != nil {
		return nil, err
	}
	return
}

// parseTx decodes txDat and verifies its envelope against st. Block
// execution passes the working state so that consecutive txs of one sender
// fit in a block.
func (app *DAOApp) parseTx(st *state.State, txDat []byte, allowNonceGap bool) (btx *tx.DAOTx, err error) {
	btx, err = tx.UnmarshalDAOTx(txDat)
	if err != nil {
		return
	}
	if btx != nil {
		_, err = st.Verify(btx, allowNonceGap)
	}
	return
}

func (app *DAOApp) CheckTx(ctx context.Context, check *abcitypes.RequestCheckTx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	st := app.db.State().Clone()
	btx, err := app.parseTx(st, check.Tx, true)
	if err != nil {
		app.logger.Error("parse tx fail", "err", err)
		res.Code = 1
		res.Log = err.Error()
		err = nil
		return
	}
	app.logger.Debug("check tx", "type", btx.Type, "sender", btx.Sender.Hex())
	h, ok := app.txHdlrs[btx.Type]
	if !ok {
		app.logger.Error("unsupported tx", "type", btx.Type)
		res.Code = 1
		res.Log = ErrUnsupportedTx.Error()
		return
	}
	res, err = h.Check(ctx, st, btx)
	if err != nil {
		app.logger.Error("check tx fail", "err", err)
		res = &abcitypes.ResponseCheckTx{Code: 1, Log: err.Error()}
		err = nil
	}
	return
}

// execTx runs one tx on a copy of st. The copy is returned only when the tx
// succeeded, otherwise st must be kept as it is.
func (app *DAOApp) execTx(ctx context.Context, st *state.State, stx []byte) (next *state.State, res *abcitypes.ExecTxResult, err error) {
	tmp := st.Clone()
	btx, err := app.parseTx(tmp, stx, false)
	if err != nil {
		return nil, nil, err
	}
	h, ok := app.txHdlrs[btx.Type]
	if !ok {
		return nil, nil, ErrUnsupportedTx
	}
	res, err = h.Process(ctx, tmp, btx)
	if err != nil {
		return nil, nil, err
	}
	if res == nil {
		return nil, nil, ErrUnexpectedTxProcess
	}
	return tmp, res, nil
}

func (app *DAOApp) PrepareProposal(ctx context.Context, proposal *abcitypes.RequestPrepareProposal) (res *abcitypes.ResponsePrepareProposal, err error) {
	app.logger.Info("PrepareProposal", "height", proposal.Height, "txs", len(proposal.Txs))
	st, err := app.getState(proposal.Time)
	if err != nil {
		app.logger.Error("PrepareProposal state fail", "err", err)
		return &abcitypes.ResponsePrepareProposal{}, nil
	}
	txs := make([][]byte, 0, len(proposal.Txs))
	var size int64
	for _, stx := range proposal.Txs {
		if proposal.MaxTxBytes > 0 && size+int64(len(stx)) > proposal.MaxTxBytes {
			break
		}
		next, _, err := app.execTx(ctx, st, stx)
		if err != nil {
			app.logger.Info("prepare tx dropped", "err", err)
			continue
		}
		st = next
		size += int64(len(stx))
		txs = append(txs, stx)
	}
	return &abcitypes.ResponsePrepareProposal{Txs: txs}, nil
}

func (app *DAOApp) ProcessProposal(ctx context.Context, proposal *abcitypes.RequestProcessProposal) (res *abcitypes.ResponseProcessProposal, err error) {
	app.logger.Info("ProcessProposal", "height", proposal.Height, "txs", len(proposal.Txs))
	res = &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_REJECT}
	st, err := app.getState(proposal.Time)
	if err != nil {
		app.logger.Error("ProcessProposal state fail", "err", err)
		return res, nil
	}
	for i, stx := range proposal.Txs {
		next, _, err := app.execTx(ctx, st, stx)
		if err != nil {
			app.logger.Error("process fail", "index", i, "err", err)
			return res, nil
		}
		st = next
	}
	res.Status = abcitypes.ResponseProcessProposal_ACCEPT
	return res, nil
}

func (app *DAOApp) FinalizeBlock(ctx context.Context, req *abcitypes.RequestFinalizeBlock) (*abcitypes.ResponseFinalizeBlock, error) {
	app.logger.Info("FinalizeBlock", "height", req.Height, "txs", len(req.Txs))
	app.lastBlk.Set(req)
	st, err := app.getState(req.Time)
	if err != nil {
		app.logger.Error("FinalizeBlock state fail", "err", err)
		return nil, err
	}
	results := make([]*abcitypes.ExecTxResult, len(req.Txs))
	for i, stx := range req.Txs {
		next, res, err := app.execTx(ctx, st, stx)
		if err != nil {
			app.logger.Info("tx failed", "index", i, "err", err)
			results[i] = &abcitypes.ExecTxResult{Code: 1, Log: err.Error()}
			continue
		}
		st = next
		results[i] = res
	}
	h, err := st.Update()
	if err != nil {
		app.logger.Error("state update hash fail", "err", err)
		return nil, err
	}
	app.st = st
	return &abcitypes.ResponseFinalizeBlock{
		TxResults: results,
		AppHash:   h.Bytes(),
	}, nil
}

func (app *DAOApp) Commit(ctx context.Context, commit *abcitypes.RequestCommit) (*abcitypes.ResponseCommit, error) {
	if app.st == nil {
		return nil, ErrUnexpectedTxProcess
	}
	_, err := app.db.SetState(app.st)
	if err != nil {
		return nil, err
	}
	app.st = nil
	app.logger.Info("Commit", "height", app.lastBlk.Height, "hash", app.lastBlk.Hash.Hex())
	return &abcitypes.ResponseCommit{}, nil
}
