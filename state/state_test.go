package state

import (
	"context"
	"math/big"
	"testing"

	daocrypto "github.com/calehh/collector-dao/crypto"
	"github.com/calehh/collector-dao/executor"
	"github.com/calehh/collector-dao/marketplace"
	"github.com/calehh/collector-dao/tx"
	"github.com/calehh/collector-dao/types"
	"github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const t0 = uint64(1_700_000_000)

var (
	testMarket = marketplace.New(common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"))
	mockNft    = common.HexToAddress("0xbc4ca0eda7647a8ab7c2061c2e118a18a936f13d")
	nftSeller  = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), DefaultMembershipThreshold)
}

func halfEther() *big.Int {
	return new(big.Int).Div(DefaultMembershipThreshold, big.NewInt(2))
}

func openTestDB(t *testing.T, dir string) *StateDB {
	db, err := NewStateDB(dir, log.NewNopLogger())
	require.NoError(t, err)
	db.SetExecutor(executor.NewOrganizationRouter(log.NewNopLogger(), DefaultVerifyingContract, testMarket))
	return db
}

func newTestState(t *testing.T) *State {
	db := openTestDB(t, t.TempDir())
	t.Cleanup(func() { db.Close() })
	st := db.NewState()
	st.SetChainId("dao-test")
	require.NoError(t, st.SetTime(t0))
	return st
}

func addr(i int64) common.Address {
	return common.BigToAddress(big.NewInt(1000 + i))
}

func newKeys(t *testing.T, n int) []*daocrypto.Key {
	keys := make([]*daocrypto.Key, n)
	for i := range keys {
		k, err := daocrypto.GenerateKey()
		require.NoError(t, err)
		keys[i] = k
	}
	return keys
}

func join(t *testing.T, st *State, members ...common.Address) {
	for _, m := range members {
		_, err := st.Contribute(m, ether(1))
		require.NoError(t, err)
	}
}

func advance(t *testing.T, st *State, seconds uint64) {
	require.NoError(t, st.SetTime(st.Now()+seconds))
}

// mockProposal buys NFT 10 through the organization itself.
func mockProposal(t *testing.T, st *State, proposer common.Address) *types.Proposal {
	calldata, err := executor.PackBuyNftFromMarketplace(testMarket.Address(), mockNft, big.NewInt(10))
	require.NoError(t, err)
	p, err := st.CreateProposal(proposer,
		[]common.Address{DefaultVerifyingContract},
		[]*big.Int{ether(2)},
		[][]byte{calldata},
		"creating proposal to buy BAYC NFT with id 10")
	require.NoError(t, err)
	return p
}

func requireState(t *testing.T, st *State, id uint64, want types.ProposalState) {
	got, err := st.ProposalState(id)
	require.NoError(t, err)
	require.Equal(t, want, got, "got %s want %s", got, want)
}

func TestContributeMembership(t *testing.T) {
	st := newTestState(t)
	a := addr(1)

	ev, err := st.Contribute(a, halfEther())
	require.NoError(t, err)
	assert.False(t, ev.IsMember)
	ok, err := st.IsMember(a)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, uint64(0), st.MemberCount())

	advance(t, st, 10)
	ev, err = st.Contribute(a, halfEther())
	require.NoError(t, err)
	assert.True(t, ev.IsMember)
	assert.Equal(t, ether(1), ev.Total)
	ok, err = st.IsMember(a)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(1), st.MemberCount())

	m, err := st.GetMember(a)
	require.NoError(t, err)
	assert.Equal(t, t0+10, m.MemberSince)

	// further contributions keep the original membership time
	advance(t, st, 10)
	_, err = st.Contribute(a, ether(3))
	require.NoError(t, err)
	m, err = st.GetMember(a)
	require.NoError(t, err)
	assert.Equal(t, t0+10, m.MemberSince)
	assert.Equal(t, uint64(1), st.MemberCount())
	assert.Equal(t, ether(4), st.Treasury())

	_, err = st.Contribute(a, big.NewInt(0))
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = st.Contribute(a, big.NewInt(-1))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	ok, err = st.IsMember(addr(99))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateProposal(t *testing.T) {
	st := newTestState(t)
	owner := addr(0)

	_, err := st.CreateProposal(owner, []common.Address{addr(5)}, []*big.Int{big.NewInt(1)}, [][]byte{nil}, "x")
	assert.ErrorIs(t, err, ErrNotMember)

	join(t, st, owner)
	for _, tc := range []struct {
		name      string
		targets   []common.Address
		values    []*big.Int
		calldatas [][]byte
	}{
		{"empty", nil, nil, nil},
		{"values short", []common.Address{addr(5), addr(6)}, []*big.Int{big.NewInt(1)}, [][]byte{nil, nil}},
		{"calldatas short", []common.Address{addr(5)}, []*big.Int{big.NewInt(1)}, [][]byte{}},
		{"negative value", []common.Address{addr(5)}, []*big.Int{big.NewInt(-1)}, [][]byte{nil}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := st.CreateProposal(owner, tc.targets, tc.values, tc.calldatas, "x")
			assert.ErrorIs(t, err, ErrMalformedProposal)
		})
	}

	p1 := mockProposal(t, st, owner)
	assert.Equal(t, uint64(1), p1.Id)
	assert.Equal(t, t0, p1.CreatedAt)
	assert.Equal(t, t0+Hour, p1.ActiveAt)
	assert.Equal(t, t0+Hour+3*Day, p1.VotingDeadline)
	assert.Equal(t, uint64(1), p1.MemberSnapshot)
	assert.Equal(t, ether(2), p1.TotalValue())

	join(t, st, addr(1))
	p2 := mockProposal(t, st, addr(1))
	assert.Equal(t, uint64(2), p2.Id)
	assert.Equal(t, uint64(2), p2.MemberSnapshot)
	assert.Equal(t, uint64(2), st.ProposalCount())

	// the snapshot of an earlier proposal does not follow the member count
	got, err := st.GetProposal(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.MemberSnapshot)

	_, err = st.GetProposal(3)
	assert.ErrorIs(t, err, ErrProposalNotFound)
	_, err = st.ProposalState(0)
	assert.ErrorIs(t, err, ErrProposalNotFound)
}

func TestLifecycle(t *testing.T) {
	p := &types.Proposal{ActiveAt: 100, VotingDeadline: 200, MemberSnapshot: 4}
	pass := types.Tally{For: 1}
	fail := types.Tally{For: 1, Against: 1}
	grace := uint64(50)

	queued := p.Clone()
	queued.Queued = true
	queued.QueuedAt = 210
	queued.Eta = 300

	executed := queued.Clone()
	executed.Executed = true

	for _, tc := range []struct {
		name string
		p    *types.Proposal
		t    types.Tally
		now  uint64
		want types.ProposalState
	}{
		{"before active", p, pass, 99, types.ProposalStatePending},
		{"at active", p, pass, 100, types.ProposalStateActive},
		{"before deadline", p, pass, 199, types.ProposalStateActive},
		{"at deadline passed", p, pass, 200, types.ProposalStateSucceeded},
		{"at deadline tied", p, fail, 200, types.ProposalStateDefeated},
		{"no votes", p, types.Tally{}, 500, types.ProposalStateDefeated},
		{"queued", queued, pass, 300, types.ProposalStateQueued},
		{"queued before eta", queued, pass, 250, types.ProposalStateQueued},
		{"queued last second", queued, pass, 349, types.ProposalStateQueued},
		{"expired", queued, pass, 350, types.ProposalStateExpired},
		{"executed", executed, pass, 1000, types.ProposalStateExecuted},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Lifecycle(tc.p, tc.t, tc.now, grace))
		})
	}
}

func TestQuorumAndMajority(t *testing.T) {
	assert.False(t, QuorumReached(types.Tally{For: 3}, 16))
	assert.True(t, QuorumReached(types.Tally{For: 4}, 16))
	assert.True(t, QuorumReached(types.Tally{Abstain: 4}, 16))
	assert.True(t, QuorumReached(types.Tally{For: 1}, 3))
	assert.False(t, QuorumReached(types.Tally{For: 2}, 9))
	assert.True(t, QuorumReached(types.Tally{}, 0))

	assert.True(t, VoteSucceeded(types.Tally{For: 3, Against: 2}, 16))
	assert.False(t, VoteSucceeded(types.Tally{For: 2, Against: 2, Abstain: 4}, 16))
	assert.False(t, VoteSucceeded(types.Tally{Abstain: 8}, 16))
	assert.False(t, VoteSucceeded(types.Tally{}, 0))
}

func TestPendingThenActive(t *testing.T) {
	st := newTestState(t)
	join(t, st, addr(0))
	p := mockProposal(t, st, addr(0))
	requireState(t, st, p.Id, types.ProposalStatePending)
	advance(t, st, 2*Hour)
	requireState(t, st, p.Id, types.ProposalStateActive)
}

func TestCastVote(t *testing.T) {
	st := newTestState(t)
	owner, voter, late := addr(0), addr(1), addr(2)
	join(t, st, owner, voter)
	p := mockProposal(t, st, owner)

	_, err := st.CastVote(addr(9), p.Id, types.VoteFor, "")
	assert.ErrorIs(t, err, ErrNotMember)

	_, err = st.CastVote(voter, p.Id, types.VoteFor, "")
	assert.ErrorIs(t, err, ErrProposalNotActive)

	advance(t, st, 2*Hour)
	join(t, st, late)

	_, err = st.CastVote(voter, 7, types.VoteFor, "")
	assert.ErrorIs(t, err, ErrProposalNotActive)

	_, err = st.CastVote(voter, p.Id, types.VoteType(3), "")
	assert.ErrorIs(t, err, ErrInvalidVoteType)

	_, err = st.CastVote(late, p.Id, types.VoteFor, "")
	assert.ErrorIs(t, err, ErrVoterIneligible)

	ev, err := st.CastVote(voter, p.Id, types.VoteAgainst, "too expensive")
	require.NoError(t, err)
	assert.Equal(t, voter.Hex(), ev.Voter)
	assert.Equal(t, types.VoteAgainst, ev.Support)
	assert.Equal(t, "too expensive", ev.Reason)

	_, err = st.CastVote(voter, p.Id, types.VoteFor, "")
	assert.ErrorIs(t, err, ErrAlreadyVoted)

	r, err := st.GetReceipt(p.Id, voter)
	require.NoError(t, err)
	assert.True(t, r.HasVoted)
	assert.Equal(t, types.VoteAgainst, r.Support)

	r, err = st.GetReceipt(p.Id, owner)
	require.NoError(t, err)
	assert.False(t, r.HasVoted)

	tally, err := st.GetTally(p.Id)
	require.NoError(t, err)
	assert.Equal(t, types.Tally{Against: 1}, tally)

	advance(t, st, 3*Day)
	_, err = st.CastVote(owner, p.Id, types.VoteFor, "")
	assert.ErrorIs(t, err, ErrProposalNotActive)
}

func TestVoteCheckOrder(t *testing.T) {
	st := newTestState(t)
	owner := addr(0)
	join(t, st, owner)
	p := mockProposal(t, st, owner)
	advance(t, st, 2*Hour)
	late := addr(1)
	join(t, st, late)

	// membership is checked before the voting window
	_, err := st.CastVote(addr(9), 99, types.VoteFor, "")
	assert.ErrorIs(t, err, ErrNotMember)

	// the window is checked before eligibility
	advance(t, st, 3*Day)
	_, err = st.CastVote(late, p.Id, types.VoteFor, "")
	assert.ErrorIs(t, err, ErrProposalNotActive)
}

func TestMemberAtCreationTimeMayVote(t *testing.T) {
	st := newTestState(t)
	owner, same := addr(0), addr(1)
	join(t, st, owner)
	p := mockProposal(t, st, owner)
	// same block time as the proposal: left out of the snapshot, still eligible
	join(t, st, same)
	assert.Equal(t, uint64(1), p.MemberSnapshot)
	m, err := st.GetMember(same)
	require.NoError(t, err)
	assert.Equal(t, p.CreatedAt, m.MemberSince)
	advance(t, st, 2*Hour)
	_, err = st.CastVote(same, p.Id, types.VoteFor, "")
	require.NoError(t, err)
}

func quorumScenario(t *testing.T, forVotes, againstVotes int) types.ProposalState {
	st := newTestState(t)
	members := make([]common.Address, 16)
	for i := range members {
		members[i] = addr(int64(i))
	}
	join(t, st, members...)
	p := mockProposal(t, st, members[0])
	assert.Equal(t, uint64(16), p.MemberSnapshot)
	advance(t, st, 2*Hour)
	for i := 0; i < forVotes; i++ {
		_, err := st.CastVote(members[i], p.Id, types.VoteFor, "")
		require.NoError(t, err)
	}
	for i := forVotes; i < forVotes+againstVotes; i++ {
		_, err := st.CastVote(members[i], p.Id, types.VoteAgainst, "")
		require.NoError(t, err)
	}
	requireState(t, st, p.Id, types.ProposalStateActive)
	advance(t, st, 3*Day)
	s, err := st.ProposalState(p.Id)
	require.NoError(t, err)
	return s
}

func TestQuorumScenarios(t *testing.T) {
	assert.Equal(t, types.ProposalStateDefeated, quorumScenario(t, 3, 0))
	assert.Equal(t, types.ProposalStateSucceeded, quorumScenario(t, 3, 2))
	assert.Equal(t, types.ProposalStateDefeated, quorumScenario(t, 2, 2))
	assert.Equal(t, types.ProposalStateDefeated, quorumScenario(t, 2, 3))
}

func TestCastVoteBySig(t *testing.T) {
	st := newTestState(t)
	keys := newKeys(t, 2)
	join(t, st, keys[0].Address(), keys[1].Address())
	p := mockProposal(t, st, keys[0].Address())

	// ballots can be signed before the proposal is active
	sig, err := daocrypto.SignBallot(keys[1].PrivateKey(), st.Params().Domain, p.Id, uint8(types.VoteFor))
	require.NoError(t, err)

	_, err = st.CastVoteBySig(p.Id, types.VoteFor, sig)
	assert.ErrorIs(t, err, ErrProposalNotActive)

	advance(t, st, 2*Hour)
	ev, err := st.CastVoteBySig(p.Id, types.VoteFor, sig)
	require.NoError(t, err)
	assert.Equal(t, keys[1].Address().Hex(), ev.Voter)

	r, err := st.GetReceipt(p.Id, keys[1].Address())
	require.NoError(t, err)
	assert.True(t, r.HasVoted)

	_, err = st.CastVoteBySig(p.Id, types.VoteFor, sig)
	assert.ErrorIs(t, err, ErrAlreadyVoted)

	// a ballot for another choice recovers to another signer
	sig0, err := daocrypto.SignBallot(keys[0].PrivateKey(), st.Params().Domain, p.Id, uint8(types.VoteFor))
	require.NoError(t, err)
	_, err = st.CastVoteBySig(p.Id, types.VoteAgainst, sig0)
	assert.Error(t, err)

	bad := sig0
	bad.V = 5
	_, err = st.CastVoteBySig(p.Id, types.VoteFor, bad)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	// a ballot signed for another domain does not count for this one
	other := st.Params().Domain
	other.ChainId = big.NewInt(1)
	foreign, err := daocrypto.SignBallot(keys[0].PrivateKey(), other, p.Id, uint8(types.VoteFor))
	require.NoError(t, err)
	_, err = st.CastVoteBySig(p.Id, types.VoteFor, foreign)
	assert.ErrorIs(t, err, ErrNotMember)
}

func TestCastVoteBySigBatch(t *testing.T) {
	st := newTestState(t)
	keys := newKeys(t, 4)
	for _, k := range keys {
		join(t, st, k.Address())
	}
	p := mockProposal(t, st, keys[0].Address())
	domain := st.Params().Domain

	ids := make([]uint64, len(keys))
	supports := make([]types.VoteType, len(keys))
	sigs := make([]daocrypto.Signature, len(keys))
	for i, k := range keys {
		ids[i] = p.Id
		supports[i] = types.VoteFor
		sig, err := daocrypto.SignBallot(k.PrivateKey(), domain, p.Id, uint8(types.VoteFor))
		require.NoError(t, err)
		sigs[i] = sig
	}
	advance(t, st, 2*Hour)

	_, err := st.CastVoteBySigBatch(ids, supports[:3], sigs)
	assert.ErrorIs(t, err, ErrMalformedBatch)

	events, err := st.CastVoteBySigBatch(ids, supports, sigs)
	require.NoError(t, err)
	require.Len(t, events, 4)
	for i, k := range keys {
		assert.Equal(t, k.Address().Hex(), events[i].Voter)
	}
	tally, err := st.GetTally(p.Id)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), tally.For)

	advance(t, st, 3*Day)
	requireState(t, st, p.Id, types.ProposalStateSucceeded)
}

func TestCastVoteBySigBatchAbortsWhole(t *testing.T) {
	st := newTestState(t)
	keys := newKeys(t, 3)
	for _, k := range keys {
		join(t, st, k.Address())
	}
	p := mockProposal(t, st, keys[0].Address())
	domain := st.Params().Domain
	advance(t, st, 2*Hour)

	_, err := st.CastVote(keys[2].Address(), p.Id, types.VoteAgainst, "")
	require.NoError(t, err)

	var sigs []daocrypto.Signature
	for _, k := range keys {
		sig, err := daocrypto.SignBallot(k.PrivateKey(), domain, p.Id, uint8(types.VoteFor))
		require.NoError(t, err)
		sigs = append(sigs, sig)
	}
	ids := []uint64{p.Id, p.Id, p.Id}
	supports := []types.VoteType{types.VoteFor, types.VoteFor, types.VoteFor}

	_, err = st.CastVoteBySigBatch(ids, supports, sigs)
	assert.ErrorIs(t, err, ErrAlreadyVoted)

	// nothing from the batch was kept
	tally, err := st.GetTally(p.Id)
	require.NoError(t, err)
	assert.Equal(t, types.Tally{Against: 1}, tally)
	for _, k := range keys[:2] {
		r, err := st.GetReceipt(p.Id, k.Address())
		require.NoError(t, err)
		assert.False(t, r.HasVoted)
	}

	// the valid part goes through on its own
	_, err = st.CastVoteBySigBatch(ids[:2], supports[:2], sigs[:2])
	require.NoError(t, err)
	tally, err = st.GetTally(p.Id)
	require.NoError(t, err)
	assert.Equal(t, types.Tally{For: 2, Against: 1}, tally)
}

// passProposal creates the mock proposal with owner as the only member and
// votes it through.
func passProposal(t *testing.T, st *State, owner common.Address) *types.Proposal {
	p := mockProposal(t, st, owner)
	advance(t, st, 2*Hour)
	_, err := st.CastVote(owner, p.Id, types.VoteFor, "")
	require.NoError(t, err)
	advance(t, st, 3*Day)
	requireState(t, st, p.Id, types.ProposalStateSucceeded)
	return p
}

func TestQueueProposal(t *testing.T) {
	st := newTestState(t)
	owner := addr(0)
	join(t, st, owner)
	p := mockProposal(t, st, owner)

	_, err := st.QueueProposal(p.Id)
	assert.ErrorIs(t, err, ErrNotSucceeded)
	_, err = st.QueueProposal(42)
	assert.ErrorIs(t, err, ErrNotSucceeded)

	advance(t, st, 2*Hour)
	_, err = st.CastVote(owner, p.Id, types.VoteFor, "")
	require.NoError(t, err)
	_, err = st.QueueProposal(p.Id)
	assert.ErrorIs(t, err, ErrNotSucceeded)

	advance(t, st, 3*Day)
	queuedAt := st.Now()
	ev, err := st.QueueProposal(p.Id)
	require.NoError(t, err)
	assert.Equal(t, queuedAt+2*Day, ev.Eta)
	requireState(t, st, p.Id, types.ProposalStateQueued)

	_, err = st.QueueProposal(p.Id)
	assert.ErrorIs(t, err, ErrNotSucceeded)
}

func TestDefeatedCannotQueue(t *testing.T) {
	st := newTestState(t)
	owner := addr(0)
	join(t, st, owner)
	p := mockProposal(t, st, owner)
	advance(t, st, 2*Hour+3*Day)
	requireState(t, st, p.Id, types.ProposalStateDefeated)
	_, err := st.QueueProposal(p.Id)
	assert.ErrorIs(t, err, ErrNotSucceeded)
}

func TestExecuteProposal(t *testing.T) {
	st := newTestState(t)
	owner := addr(0)
	join(t, st, owner)
	require.NoError(t, testMarket.List(st, mockNft, big.NewInt(10), ether(1), nftSeller))
	p := passProposal(t, st, owner)

	_, _, err := st.ExecuteProposal(context.Background(), p.Id)
	assert.ErrorIs(t, err, ErrNotQueuedOrExpired)

	_, err = st.QueueProposal(p.Id)
	require.NoError(t, err)

	advance(t, st, Day)
	_, _, err = st.ExecuteProposal(context.Background(), p.Id)
	assert.ErrorIs(t, err, ErrNotReady)

	advance(t, st, Day+Hour)
	// the treasury holds 1 unit, the proposal sends 2
	_, _, err = st.ExecuteProposal(context.Background(), p.Id)
	assert.ErrorIs(t, err, ErrActionExecutionFailed)
	assert.Contains(t, err.Error(), ReasonRevertedWithoutMessage)
	assert.Equal(t, ether(1), st.Treasury())
	requireState(t, st, p.Id, types.ProposalStateQueued)

	_, err = st.Contribute(addr(1), ether(10))
	require.NoError(t, err)
	txEvents, done, err := st.ExecuteProposal(context.Background(), p.Id)
	require.NoError(t, err)
	require.Len(t, txEvents, 1)
	assert.Equal(t, DefaultVerifyingContract.Hex(), txEvents[0].Target)
	assert.Equal(t, ether(2), txEvents[0].Value)
	assert.Equal(t, p.Id, done.Proposal)
	requireState(t, st, p.Id, types.ProposalStateExecuted)

	// 11 in, 1 paid for the NFT
	assert.Equal(t, ether(10), st.Treasury())
	owner2, err := testMarket.OwnerOf(st, mockNft, big.NewInt(10))
	require.NoError(t, err)
	assert.Equal(t, DefaultVerifyingContract, owner2)

	_, _, err = st.ExecuteProposal(context.Background(), p.Id)
	assert.ErrorIs(t, err, ErrNotQueuedOrExpired)
}

func TestExecuteProposalPartialFailureKeepsNothing(t *testing.T) {
	st := newTestState(t)
	owner := addr(0)
	join(t, st, owner)
	_, err := st.Contribute(addr(1), ether(10))
	require.NoError(t, err)
	require.NoError(t, testMarket.List(st, mockNft, big.NewInt(10), ether(1), nftSeller))

	buy, err := executor.PackBuyNftFromMarketplace(testMarket.Address(), mockNft, big.NewInt(10))
	require.NoError(t, err)
	missing, err := executor.PackBuyNftFromMarketplace(testMarket.Address(), mockNft, big.NewInt(11))
	require.NoError(t, err)
	p, err := st.CreateProposal(owner,
		[]common.Address{addr(50), DefaultVerifyingContract, DefaultVerifyingContract},
		[]*big.Int{ether(3), ether(1), ether(1)},
		[][]byte{nil, buy, missing},
		"two buys, second one is not listed")
	require.NoError(t, err)
	advance(t, st, 2*Hour)
	_, err = st.CastVote(owner, p.Id, types.VoteFor, "")
	require.NoError(t, err)
	advance(t, st, 3*Day)
	_, err = st.QueueProposal(p.Id)
	require.NoError(t, err)
	advance(t, st, 2*Day)

	before := st.Treasury()
	_, _, err = st.ExecuteProposal(context.Background(), p.Id)
	assert.ErrorIs(t, err, ErrActionExecutionFailed)
	assert.ErrorContains(t, err, "action 2")
	assert.Equal(t, before, st.Treasury())
	owner2, err := testMarket.OwnerOf(st, mockNft, big.NewInt(10))
	require.NoError(t, err)
	assert.Equal(t, common.Address{}, owner2)
	price, err := testMarket.GetPrice(st, mockNft, big.NewInt(10))
	require.NoError(t, err)
	assert.Equal(t, ether(1), price)
	requireState(t, st, p.Id, types.ProposalStateQueued)
}

func TestQueuedProposalExpires(t *testing.T) {
	st := newTestState(t)
	owner := addr(0)
	join(t, st, owner)
	p := passProposal(t, st, owner)
	_, err := st.QueueProposal(p.Id)
	require.NoError(t, err)

	advance(t, st, 12*Day)
	requireState(t, st, p.Id, types.ProposalStateExpired)
	_, _, err = st.ExecuteProposal(context.Background(), p.Id)
	assert.ErrorIs(t, err, ErrNotQueuedOrExpired)
}

func TestExecuteWithoutExecutor(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	defer db.Close()
	st := db.NewState()
	st.SetExecutor(nil)
	require.NoError(t, st.SetTime(t0))
	join(t, st, addr(0))
	p := passProposal(t, st, addr(0))
	_, err := st.QueueProposal(p.Id)
	require.NoError(t, err)
	advance(t, st, 2*Day)
	_, _, err = st.ExecuteProposal(context.Background(), p.Id)
	assert.ErrorIs(t, err, ErrNoExecutor)
}

func TestSetTimeMonotonic(t *testing.T) {
	st := newTestState(t)
	assert.ErrorIs(t, st.SetTime(t0-1), ErrTimeReversed)
	require.NoError(t, st.SetTime(t0))
	require.NoError(t, st.SetTime(t0+1))
	assert.Equal(t, t0+1, st.Now())
}

func TestPersistence(t *testing.T) {
	dir := t.TempDir()
	db := openTestDB(t, dir)
	st := db.NewState()
	st.SetChainId("dao-test")
	require.NoError(t, st.SetTime(t0))
	owner := addr(0)
	join(t, st, owner)
	p := mockProposal(t, st, owner)
	advance(t, st, 2*Hour)
	_, err := st.CastVote(owner, p.Id, types.VoteAbstain, "")
	require.NoError(t, err)
	require.NoError(t, st.Set([]byte("k"), []byte("v")))

	h1, err := st.Update()
	require.NoError(t, err)
	h2, err := db.SetState(st)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	require.NoError(t, db.Close())

	// the data dir lock must be released on close
	db = openTestDB(t, dir)
	defer db.Close()
	assert.Equal(t, h2, db.State().Hash())
	header := db.Header()
	assert.Equal(t, "dao-test", header.ChainId)
	assert.Equal(t, t0+2*Hour, header.Time)
	assert.Equal(t, ether(1), header.Treasury)

	m, _, err := db.GetMember(owner)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.True(t, m.IsMember)

	view, _, err := db.GetProposal(p.Id)
	require.NoError(t, err)
	assert.Equal(t, p.Description, view.Proposal.Description)
	assert.Equal(t, types.Tally{Abstain: 1}, view.Tally)
	assert.Equal(t, types.ProposalStateActive, view.State)

	r, _, err := db.GetReceipt(p.Id, owner)
	require.NoError(t, err)
	assert.Equal(t, types.Receipt{HasVoted: true, Support: types.VoteAbstain}, r)

	val, _, err := db.GetStore([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)

	next := db.NewState()
	assert.Equal(t, header.Height+1, next.Header().Height)
}

func TestUpdateIsDeterministic(t *testing.T) {
	build := func() common.Hash {
		db := openTestDB(t, t.TempDir())
		defer db.Close()
		st := db.NewState()
		require.NoError(t, st.SetTime(t0))
		for i := int64(5); i >= 0; i-- {
			join(t, st, addr(i))
		}
		mockProposal(t, st, addr(0))
		h, err := st.Update()
		require.NoError(t, err)
		return h
	}
	assert.Equal(t, build(), build())
}

func TestVerifyTx(t *testing.T) {
	st := newTestState(t)
	key := newKeys(t, 1)[0]

	btx, err := tx.NewSignedTx(key, "dao-test", tx.DAOTxTypeContribute, 0, &tx.ContributeTx{Amount: ether(1)})
	require.NoError(t, err)
	dat, err := tx.MarshalDAOTx(btx)
	require.NoError(t, err)
	parsed, err := tx.UnmarshalDAOTx(dat)
	require.NoError(t, err)

	sender, err := st.Verify(parsed, false)
	require.NoError(t, err)
	assert.Equal(t, key.Address(), sender)

	require.NoError(t, st.IncNonce(sender))
	_, err = st.Verify(parsed, false)
	assert.ErrorIs(t, err, ErrTxNonceInvalid)

	ahead, err := tx.NewSignedTx(key, "dao-test", tx.DAOTxTypeContribute, 5, &tx.ContributeTx{Amount: ether(1)})
	require.NoError(t, err)
	_, err = st.Verify(ahead, true)
	require.NoError(t, err)
	_, err = st.Verify(ahead, false)
	assert.ErrorIs(t, err, ErrTxNonceInvalid)

	wrongChain, err := tx.NewSignedTx(key, "other-chain", tx.DAOTxTypeContribute, 1, &tx.ContributeTx{Amount: ether(1)})
	require.NoError(t, err)
	_, err = st.Verify(wrongChain, false)
	assert.ErrorIs(t, err, ErrTxSigInvalid)

	forged := *wrongChain
	forged.Sender = addr(3)
	_, err = st.Verify(&forged, true)
	assert.ErrorIs(t, err, ErrTxSigInvalid)
}

func TestInitGenesis(t *testing.T) {
	st := newTestState(t)
	owner := addr(0)
	events, err := st.InitGenesis(&types.AppState{
		Params: []byte(`{"voting_delay": 60, "domain": {"name": "Test"}}`),
		Contributions: []types.GenesisContribution{
			{Address: owner.Hex(), Amount: ether(1).String()},
			{Address: addr(1).Hex(), Amount: "500"},
		},
	})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, uint64(60), st.Params().VotingDelay)
	assert.Equal(t, DefaultVotingPeriod, st.Params().VotingPeriod)
	assert.Equal(t, "Test", st.Params().Domain.Name)
	assert.Equal(t, DefaultVerifyingContract, st.Params().Domain.VerifyingContract)

	ok, err := st.IsMember(owner)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = st.IsMember(addr(1))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = st.InitGenesis(&types.AppState{
		Contributions: []types.GenesisContribution{{Address: "nope", Amount: "1"}},
	})
	assert.Error(t, err)

	_, err = st.InitGenesis(&types.AppState{Params: []byte(`{"voting_period": 0}`)})
	assert.Error(t, err)
}
