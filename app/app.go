package app

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/calehh/collector-dao/config"
	"github.com/calehh/collector-dao/executor"
	"github.com/calehh/collector-dao/marketplace"
	"github.com/calehh/collector-dao/state"
	"github.com/calehh/collector-dao/tx"
	"github.com/calehh/collector-dao/tx/handler"
	"github.com/calehh/collector-dao/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cometbft/cometbft/store"
	"github.com/ethereum/go-ethereum/common"
)

type finalizeBlock struct {
	Height uint64
	Hash   common.Hash
}

func (b *finalizeBlock) Set(blk *abcitypes.RequestFinalizeBlock) {
	b.Height = uint64(blk.Height)
	b.Hash = common.BytesToHash(blk.Hash)
}

var _ abcitypes.Application = &DAOApp{}

type DAOApp struct {
	cfg    *config.DaoConfig
	logger cmtlog.Logger

	db       *state.StateDB
	lastBlk  finalizeBlock
	txHdlrs  map[tx.DAOTxType]handler.TxHandler
	queriers map[string]Querier

	st *state.State
}

func NewDAOApp(cfg *config.DaoConfig, logger cmtlog.Logger) (app *DAOApp, err error) {
	logger = logger.With("module", "app")

	dir := cfg.Home + "/data"
	db, err := state.NewStateDB(dir, logger)
	if err != nil {
		return nil, err
	}

	app = &DAOApp{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		txHdlrs:  handler.NewTxHandlers(logger),
		queriers: make(map[string]Querier),
	}
	db.SetExecutor(app.newExecutor(db.State().Params()))
	app.registerQuerier()
	return
}

// newExecutor routes proposal actions to the organization and the
// marketplaces named in params.
func (app *DAOApp) newExecutor(params *state.Params) state.Executor {
	markets := make([]*marketplace.Marketplace, len(params.Marketplaces))
	for i, addr := range params.Marketplaces {
		markets[i] = marketplace.New(addr)
	}
	return executor.NewOrganizationRouter(app.logger, params.Domain.VerifyingContract, markets...)
}

func (app *DAOApp) Start(bs *store.BlockStore) {
	height := app.db.Header().Height
	if height > 0 {
		blk := bs.LoadBlock(int64(height))
		if blk == nil {
			panic("unexpected BlockStore")
		}
		app.lastBlk.Height = height
		app.lastBlk.Hash = common.BytesToHash(blk.Hash())
	}
}

func (app *DAOApp) Stop() {
	err := app.db.Close()
	if err != nil {
		app.logger.Error("close db fail", "err", err)
	}
	app.logger.Info("DAO app stopped")
}

func (app *DAOApp) registerQuerier() {
	app.queriers["/members/"] = NewMemberQuerier(app.db, app.logger)
	app.queriers["/proposals/"] = NewProposalQuerier(app.db, app.logger)
	app.queriers["/receipts/"] = NewReceiptQuerier(app.db, app.logger)
	app.queriers["/nonces/"] = NewNonceQuerier(app.db, app.logger)
	app.queriers["/treasury/"] = NewTreasuryQuerier(app.db, app.logger)
	app.queriers["/nft/"] = NewNftQuerier(app.db, app.logger)
}

func (app *DAOApp) InitChain(_ context.Context, chain *abcitypes.RequestInitChain) (res *abcitypes.ResponseInitChain, err error) {
	st := app.db.NewState()
	st.SetChainId(chain.ChainId)
	if err = st.SetTime(uint64(chain.Time.Unix())); err != nil {
		app.logger.Error("InitChain set time fail", "err", err)
		return nil, err
	}
	var appState types.AppState
	if len(chain.AppStateBytes) != 0 {
		if err = json.Unmarshal(chain.AppStateBytes, &appState); err != nil {
			app.logger.Error("InitChain parse app state fail", "err", err)
			return nil, err
		}
	}
	events, err := st.InitGenesis(&appState)
	if err != nil {
		app.logger.Error("InitChain genesis fail", "err", err)
		return nil, err
	}
	for _, e := range events {
		app.logger.Info("genesis contribution", "member", e.Member, "amount", e.Amount, "isMember", e.IsMember)
	}
	if err = listGenesisNfts(st, appState.Listings); err != nil {
		app.logger.Error("InitChain genesis listing fail", "err", err)
		return nil, err
	}
	st.SetExecutor(app.newExecutor(st.Params()))

	var h common.Hash
	_, err = st.Update()
	if err != nil {
		app.logger.Error("InitChain update state fail", "err", err)
		return nil, err
	}
	h, err = app.db.SetState(st)
	if err != nil {
		app.logger.Error("InitChain apply state fail", "err", err)
		return nil, err
	}
	return &abcitypes.ResponseInitChain{
		AppHash: h.Bytes(),
	}, nil
}

func listGenesisNfts(st *state.State, listings []types.GenesisListing) error {
	known := make(map[common.Address]bool)
	for _, m := range st.Params().Marketplaces {
		known[m] = true
	}
	for i, l := range listings {
		addr := common.HexToAddress(l.Marketplace)
		if !known[addr] {
			return fmt.Errorf("listing %d: %w: %s", i, executor.ErrUnknownMarketplace, l.Marketplace)
		}
		nftId, _ := new(big.Int).SetString(l.NftId, 10)
		price, _ := new(big.Int).SetString(l.Price, 10)
		err := marketplace.New(addr).List(st, common.HexToAddress(l.NftContract), nftId, price, common.HexToAddress(l.Seller))
		if err != nil {
			return fmt.Errorf("listing %d: %w", i, err)
		}
	}
	return nil
}

func (app *DAOApp) Info(ctx context.Context, info *abcitypes.RequestInfo) (*abcitypes.ResponseInfo, error) {
	header := app.db.Header()
	return &abcitypes.ResponseInfo{
		LastBlockHeight:  int64(header.Height),
		LastBlockAppHash: header.Hash,
	}, nil
}

func (app *DAOApp) ExtendVote(_ context.Context, extend *abcitypes.RequestExtendVote) (*abcitypes.ResponseExtendVote, error) {
	return &abcitypes.ResponseExtendVote{}, nil
}

func (app *DAOApp) VerifyVoteExtension(_ context.Context, verify *abcitypes.RequestVerifyVoteExtension) (*abcitypes.ResponseVerifyVoteExtension, error) {
	return &abcitypes.ResponseVerifyVoteExtension{Status: abcitypes.ResponseVerifyVoteExtension_ACCEPT}, nil
}

func (app *DAOApp) ApplySnapshotChunk(context.Context, *abcitypes.RequestApplySnapshotChunk) (*abcitypes.ResponseApplySnapshotChunk, error) {
	return nil, nil
}

func (app *DAOApp) ListSnapshots(context.Context, *abcitypes.RequestListSnapshots) (*abcitypes.ResponseListSnapshots, error) {
	return nil, nil
}

func (app *DAOApp) LoadSnapshotChunk(context.Context, *abcitypes.RequestLoadSnapshotChunk) (*abcitypes.ResponseLoadSnapshotChunk, error) {
	return nil, nil
}

func (app *DAOApp) OfferSnapshot(context.Context, *abcitypes.RequestOfferSnapshot) (*abcitypes.ResponseOfferSnapshot, error) {
	return nil, nil
}

// Params are the chain parameters of the committed state.
func (app *DAOApp) Params() *state.Params {
	return app.db.State().Params()
}
