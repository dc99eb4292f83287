package state

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/calehh/collector-dao/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/syndtr/goleveldb/leveldb"
)

var (
	KeyState    = "s"
	KeyParams   = "g"
	KeyMember   = "m%x"
	KeyProposal = "p%d"
	KeyTally    = "t%d"
	KeyReceipt  = "r%d/%x"
	KeyNonce    = "n%x"
	KeyExt      = "x/%s"
)

// Executor performs one proposal action. The action value has already left
// the treasury when Execute is called; returned is the part of it that came
// back to the organization.
type Executor interface {
	Execute(ctx context.Context, store types.Store, action types.Action) (returned *big.Int, err error)
}

type receiptKey struct {
	proposal uint64
	voter    common.Address
}

type State struct {
	logger   cmtlog.Logger
	db       *iavl.MutableTree
	dbVer    int64
	executor Executor

	header *StateHeader
	params *Params

	members   map[common.Address]*types.Member
	proposals map[uint64]*types.Proposal
	tallies   map[uint64]*types.Tally
	receipts  map[receiptKey]*types.Receipt
	nonces    map[common.Address]uint64
	ext       map[string][]byte

	modParams    bool
	modMembers   map[common.Address]struct{}
	modProposals map[uint64]struct{}
	modTallies   map[uint64]struct{}
	modReceipts  map[receiptKey]struct{}
	modNonces    map[common.Address]struct{}
	modExt       map[string]struct{}
}

func newState(db *iavl.MutableTree, logger cmtlog.Logger) *State {
	s := &State{
		logger: logger,
		db:     db,
		header: &StateHeader{Treasury: new(big.Int)},
		params: DefaultParams(),
	}
	s.resetCaches()
	return s
}

func (s *State) resetCaches() {
	s.members = make(map[common.Address]*types.Member)
	s.proposals = make(map[uint64]*types.Proposal)
	s.tallies = make(map[uint64]*types.Tally)
	s.receipts = make(map[receiptKey]*types.Receipt)
	s.nonces = make(map[common.Address]uint64)
	s.ext = make(map[string][]byte)
	s.resetModified()
}

func (s *State) resetModified() {
	s.modParams = false
	s.modMembers = make(map[common.Address]struct{})
	s.modProposals = make(map[uint64]struct{})
	s.modTallies = make(map[uint64]struct{})
	s.modReceipts = make(map[receiptKey]struct{})
	s.modNonces = make(map[common.Address]struct{})
	s.modExt = make(map[string]struct{})
}

// nextState starts the state of the next block on top of s.
func (s *State) nextState() *State {
	n := &State{
		logger:   s.logger,
		db:       s.db,
		dbVer:    s.dbVer,
		executor: s.executor,
		header:   s.header.Clone(),
		params:   s.params,
	}
	n.resetCaches()
	if s.header.Hash != nil {
		n.header.Height = s.header.Height + 1
	}
	return n
}

func copyMap[K comparable, V any](source map[K]V, clone func(V) V) map[K]V {
	res := make(map[K]V, len(source))
	for k, v := range source {
		if clone != nil {
			v = clone(v)
		}
		res[k] = v
	}
	return res
}

// Clone returns an independent copy of s. Changes made to the copy reach the
// tree only through its own Update.
func (s *State) Clone() *State {
	n := &State{
		logger:   s.logger,
		db:       s.db,
		dbVer:    s.dbVer,
		executor: s.executor,
		header:   s.header.Clone(),
		params:   s.params,

		members:   copyMap(s.members, (*types.Member).Clone),
		proposals: copyMap(s.proposals, (*types.Proposal).Clone),
		tallies:   copyMap(s.tallies, func(t *types.Tally) *types.Tally { c := *t; return &c }),
		receipts:  copyMap(s.receipts, func(r *types.Receipt) *types.Receipt { c := *r; return &c }),
		nonces:    copyMap(s.nonces, nil),
		ext:       copyMap(s.ext, common.CopyBytes),

		modParams:    s.modParams,
		modMembers:   copyMap(s.modMembers, nil),
		modProposals: copyMap(s.modProposals, nil),
		modTallies:   copyMap(s.modTallies, nil),
		modReceipts:  copyMap(s.modReceipts, nil),
		modNonces:    copyMap(s.modNonces, nil),
		modExt:       copyMap(s.modExt, nil),
	}
	return n
}

// adopt replaces s with a clone that finished successfully.
func (s *State) adopt(n *State) {
	*s = *n
}

func (s *State) SetExecutor(exec Executor) {
	s.executor = exec
}

func (s *State) get(key string) ([]byte, error) {
	val, err := s.db.Get([]byte(key))
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return val, nil
}

func (s *State) load() (err error) {
	val, err := s.get(KeyParams)
	if err != nil {
		return err
	}
	if val != nil {
		params := new(Params)
		if err = rlp.DecodeBytes(val, params); err != nil {
			return err
		}
		s.params = params
	}
	val, err = s.get(KeyState)
	if err != nil {
		return err
	}
	if val != nil {
		if err = rlp.DecodeBytes(val, s.header); err != nil {
			return
		}
		if s.header.Treasury == nil {
			s.header.Treasury = new(big.Int)
		}
		h := s.db.Hash()
		if h != nil {
			s.calcHash(h, true)
		}
	}
	return
}

func (s *State) calcHash(rootHash []byte, update bool) (h common.Hash) {
	h = crypto.Keccak256Hash(rootHash)
	if update {
		s.header.RootHash = common.CopyBytes(rootHash)
		s.header.Hash = common.CopyBytes(h[:])
	}
	return
}

func (s *State) set(key string, v any) error {
	val, err := rlp.EncodeToBytes(v)
	if err != nil {
		return err
	}
	_, err = s.db.Set([]byte(key), val)
	return err
}

func sortedKeys[K comparable](m map[K]struct{}, less func(a, b K) bool) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return less(keys[i], keys[j])
	})
	return keys
}

func lessAddress(a, b common.Address) bool {
	return a.Cmp(b) < 0
}

// Update writes every modified record into the working tree and returns the
// resulting state hash. Records are written in a fixed order so every node
// computes the same tree.
func (s *State) Update() (h common.Hash, err error) {
	var hash []byte
	defer func() {
		if hash == nil {
			s.db.Rollback()
		}
	}()
	if err = s.set(KeyState, s.header); err != nil {
		return
	}
	if s.modParams {
		if err = s.set(KeyParams, s.params); err != nil {
			return
		}
	}
	for _, addr := range sortedKeys(s.modMembers, lessAddress) {
		if err = s.set(fmt.Sprintf(KeyMember, addr[:]), s.members[addr]); err != nil {
			return
		}
	}
	lessId := func(a, b uint64) bool { return a < b }
	for _, id := range sortedKeys(s.modProposals, lessId) {
		if err = s.set(fmt.Sprintf(KeyProposal, id), s.proposals[id]); err != nil {
			return
		}
	}
	for _, id := range sortedKeys(s.modTallies, lessId) {
		if err = s.set(fmt.Sprintf(KeyTally, id), s.tallies[id]); err != nil {
			return
		}
	}
	lessReceipt := func(a, b receiptKey) bool {
		if a.proposal != b.proposal {
			return a.proposal < b.proposal
		}
		return lessAddress(a.voter, b.voter)
	}
	for _, k := range sortedKeys(s.modReceipts, lessReceipt) {
		if err = s.set(fmt.Sprintf(KeyReceipt, k.proposal, k.voter[:]), s.receipts[k]); err != nil {
			return
		}
	}
	for _, addr := range sortedKeys(s.modNonces, lessAddress) {
		if err = s.set(fmt.Sprintf(KeyNonce, addr[:]), s.nonces[addr]); err != nil {
			return
		}
	}
	for _, k := range sortedKeys(s.modExt, func(a, b string) bool { return a < b }) {
		key := []byte(fmt.Sprintf(KeyExt, k))
		if len(s.ext[k]) == 0 {
			// iavl refuses empty values
			if _, _, err = s.db.Remove(key); err != nil {
				return
			}
			continue
		}
		if _, err = s.db.Set(key, s.ext[k]); err != nil {
			return
		}
	}
	hash = s.db.WorkingHash()
	h = s.calcHash(hash, false)
	s.resetModified()
	return
}

func (s *State) save() (h common.Hash, err error) {
	hash, ver, err := s.db.SaveVersion()
	if err != nil {
		return h, err
	}
	s.dbVer = ver
	h = s.calcHash(hash, true)
	return
}

func (s *State) Header() *StateHeader {
	return s.header
}

func (s *State) Params() *Params {
	return s.params
}

// SetParams replaces the chain parameters. Only genesis calls it.
func (s *State) SetParams(p *Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.params = p
	s.modParams = true
	return nil
}

func (s *State) Hash() (h common.Hash) {
	if s.header.Hash != nil {
		copy(h[:], s.header.Hash)
	}
	return
}

func (s *State) SetChainId(chainId string) {
	s.header.ChainId = chainId
}

// Now is the host clock as last set by SetTime, in Unix seconds.
func (s *State) Now() uint64 {
	return s.header.Time
}

// SetTime advances the clock. The clock never goes backwards.
func (s *State) SetTime(now uint64) error {
	if now < s.header.Time {
		return fmt.Errorf("%w: %d < %d", ErrTimeReversed, now, s.header.Time)
	}
	s.header.Time = now
	return nil
}

// Get reads the executor key/value space.
func (s *State) Get(key []byte) ([]byte, error) {
	k := string(key)
	if v, ok := s.ext[k]; ok {
		return common.CopyBytes(v), nil
	}
	val, err := s.get(fmt.Sprintf(KeyExt, k))
	if err != nil {
		return nil, err
	}
	if val != nil {
		s.ext[k] = common.CopyBytes(val)
	}
	return val, nil
}

// Set writes the executor key/value space.
func (s *State) Set(key, value []byte) error {
	k := string(key)
	s.ext[k] = common.CopyBytes(value)
	s.modExt[k] = struct{}{}
	return nil
}
