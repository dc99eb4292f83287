package state

import (
	"sync"

	"github.com/calehh/collector-dao/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	dbm "github.com/cosmos/iavl/db"
	"github.com/ethereum/go-ethereum/common"
)

type StateDB struct {
	mtx sync.RWMutex

	dir    string
	logger cmtlog.Logger
	ldb    dbm.DB
	db     *iavl.MutableTree

	state *State
}

func NewStateDB(dir string, logger cmtlog.Logger) (db *StateDB, err error) {
	logger = logger.With("module", "daodb")
	ldb, err := dbm.NewDB("dao", "goleveldb", dir)
	if err != nil {
		return nil, err
	}
	tdb := iavl.NewMutableTree(ldb, 128, true, Cometbft2CosmosLogger(logger))
	version, err := tdb.Load()
	if err != nil {
		ldb.Close()
		return nil, err
	}
	logger.Info("load db success", "version", version)
	st := newState(tdb, logger)
	err = st.load()
	if err != nil {
		logger.Error("from daodb load fail", "err", err)
		ldb.Close()
		return nil, err
	}
	db = &StateDB{
		dir:    dir,
		logger: logger,
		ldb:    ldb,
		db:     tdb,
		state:  st,
	}
	return
}

// Close closes the tree and then the leveldb handle, which the tree leaves open.
func (db *StateDB) Close() error {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	if err := db.db.Close(); err != nil {
		db.ldb.Close()
		return err
	}
	return db.ldb.Close()
}

// SetExecutor installs the action executor used by ExecuteProposal.
func (db *StateDB) SetExecutor(exec Executor) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	db.state.SetExecutor(exec)
}

func (db *StateDB) Header() (header *StateHeader) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	header = db.state.Header().Clone()
	return
}

func (db *StateDB) State() *State {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	return db.state
}

func (db *StateDB) NewState() (st *State) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	st = db.state.nextState()
	return
}

func (db *StateDB) SetState(st *State) (hash common.Hash, err error) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	hash, err = st.save()
	if err != nil {
		return
	}
	db.state = st
	return
}

// view runs fn against a private copy of the committed state so that lazy
// loads never touch the shared caches.
func (db *StateDB) view(fn func(st *State) error) (height uint64, err error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	st := db.state.Clone()
	height = st.header.Height
	err = fn(st)
	return
}

func (db *StateDB) GetMember(addr common.Address) (m *types.Member, height uint64, err error) {
	height, err = db.view(func(st *State) error {
		var err error
		m, err = st.GetMember(addr)
		if m != nil {
			m = m.Clone()
		}
		return err
	})
	return
}

// ProposalView is a proposal together with the state derived from it at the
// committed block time.
type ProposalView struct {
	Proposal *types.Proposal     `json:"proposal"`
	Tally    types.Tally         `json:"tally"`
	State    types.ProposalState `json:"state"`
}

func (db *StateDB) GetProposal(id uint64) (v *ProposalView, height uint64, err error) {
	height, err = db.view(func(st *State) error {
		p, err := st.GetProposal(id)
		if err != nil {
			return err
		}
		t, err := st.GetTally(id)
		if err != nil {
			return err
		}
		v = &ProposalView{
			Proposal: p.Clone(),
			Tally:    t,
			State:    Lifecycle(p, t, st.Now(), st.params.GracePeriod),
		}
		return nil
	})
	return
}

func (db *StateDB) GetReceipt(id uint64, voter common.Address) (r types.Receipt, height uint64, err error) {
	height, err = db.view(func(st *State) error {
		var err error
		r, err = st.GetReceipt(id, voter)
		return err
	})
	return
}

func (db *StateDB) GetNonce(addr common.Address) (n uint64, height uint64, err error) {
	height, err = db.view(func(st *State) error {
		var err error
		n, err = st.GetNonce(addr)
		return err
	})
	return
}

func (db *StateDB) GetStore(key []byte) (val []byte, height uint64, err error) {
	height, err = db.view(func(st *State) error {
		var err error
		val, err = st.Get(key)
		return err
	})
	return
}
