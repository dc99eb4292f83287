package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/calehh/collector-dao/types"
	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/cometbft/cometbft/libs/log"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBlock struct {
	time    time.Time
	results []*abci.ExecTxResult
}

type fakeSource struct {
	blocks []fakeBlock
}

func (s *fakeSource) Status(ctx context.Context) (*coretypes.ResultStatus, error) {
	return &coretypes.ResultStatus{SyncInfo: coretypes.SyncInfo{LatestBlockHeight: int64(len(s.blocks))}}, nil
}

func (s *fakeSource) Block(ctx context.Context, height *int64) (*coretypes.ResultBlock, error) {
	b := s.blocks[*height-1]
	return &coretypes.ResultBlock{Block: &cmttypes.Block{Header: cmttypes.Header{Height: *height, Time: b.time}}}, nil
}

func (s *fakeSource) BlockResults(ctx context.Context, height *int64) (*coretypes.ResultBlockResults, error) {
	return &coretypes.ResultBlockResults{Height: *height, TxsResults: s.blocks[*height-1].results}, nil
}

func (s *fakeSource) add(at uint64, events ...abci.Event) {
	s.blocks = append(s.blocks, fakeBlock{
		time:    time.Unix(int64(at), 0),
		results: []*abci.ExecTxResult{{Events: events}},
	})
}

const (
	alice = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
	bob   = "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"
	day   = uint64(24 * 3600)
	t0    = uint64(1_700_000_000)
)

func newIndexer(t *testing.T, src BlockSource) *ChainIndexer {
	db, err := OpenDB(filepath.Join(t.TempDir(), "indexer.db"))
	require.NoError(t, err)
	c, err := newChainIndexer(log.NewNopLogger(), db, src, 5*day)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func contribution(member string, amount, total int64, isMember bool) abci.Event {
	return types.EncodeEventContribution(&types.EventContribution{
		Member:   member,
		Amount:   big.NewInt(amount),
		Total:    big.NewInt(total),
		IsMember: isMember,
	})
}

func fillChain(src *fakeSource) {
	src.add(t0, contribution(alice, 10, 10, true), contribution(bob, 1, 1, false))
	src.add(t0+10, types.EncodeEventCreateProposal(&types.EventCreateProposal{
		Proposal:       1,
		Proposer:       alice,
		Targets:        []string{bob},
		Values:         []string{"3"},
		Calldatas:      []string{"0x"},
		Description:    "pay bob",
		CreatedAt:      t0 + 10,
		ActiveAt:       t0 + 100,
		VotingDeadline: t0 + 1000,
		MemberSnapshot: 1,
	}))
	src.add(t0+200, types.EncodeEventCastVote(&types.EventCastVote{Voter: alice, Proposal: 1, Support: types.VoteFor, Reason: "yes"}))
	// failed txs carry no state and are skipped
	src.blocks[2].results = append(src.blocks[2].results, &abci.ExecTxResult{
		Code:   1,
		Events: []abci.Event{types.EncodeEventCastVote(&types.EventCastVote{Voter: bob, Proposal: 1, Support: types.VoteAgainst})},
	})
}

func TestIndexProposalLifecycle(t *testing.T) {
	src := &fakeSource{}
	fillChain(src)
	c := newIndexer(t, src)
	ctx := context.Background()

	require.NoError(t, c.Sync(ctx))
	assert.Equal(t, int64(4), c.Height)

	p, err := c.getProposalById(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), p.ForVotes)
	assert.Equal(t, uint64(0), p.AgainstVotes)
	assert.Equal(t, types.ProposalStateActive, c.State(&p))

	src.add(t0+1000, types.EncodeEventProposalQueued(&types.EventProposalQueued{Proposal: 1, Eta: t0 + 1000 + 2*day}))
	require.NoError(t, c.Sync(ctx))
	p, err = c.getProposalById(1)
	require.NoError(t, err)
	assert.True(t, p.Queued)
	assert.Equal(t, types.ProposalStateQueued, c.State(&p))

	src.add(t0+1000+2*day,
		types.EncodeEventExecuteTransaction(&types.EventExecuteTransaction{Proposal: 1, Index: 0, Target: bob, Value: big.NewInt(3), Calldata: []byte{}}),
		types.EncodeEventProposalExecuted(&types.EventProposalExecuted{Proposal: 1, Actions: 1}),
	)
	require.NoError(t, c.Sync(ctx))
	p, err = c.getProposalById(1)
	require.NoError(t, err)
	assert.Equal(t, types.ProposalStateExecuted, c.State(&p))
	executions, err := c.getExecutions(1)
	require.NoError(t, err)
	require.Len(t, executions, 1)
	assert.Equal(t, "3", executions[0].Value)
}

func TestIndexerResumesFromStoredHeight(t *testing.T) {
	src := &fakeSource{}
	fillChain(src)
	path := filepath.Join(t.TempDir(), "indexer.db")

	db, err := OpenDB(path)
	require.NoError(t, err)
	c, err := newChainIndexer(log.NewNopLogger(), db, src, 5*day)
	require.NoError(t, err)
	require.NoError(t, c.Sync(context.Background()))
	require.NoError(t, c.Close())

	db, err = OpenDB(path)
	require.NoError(t, err)
	c, err = newChainIndexer(log.NewNopLogger(), db, src, 5*day)
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, int64(4), c.Height)
	assert.Equal(t, t0+200, c.Time)

	// nothing is indexed twice
	require.NoError(t, c.Sync(context.Background()))
	_, total, err := c.getVotes("proposal = ?", uint64(1), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
}

func TestBadEventRollsBackBlock(t *testing.T) {
	src := &fakeSource{}
	src.add(t0, contribution(alice, 10, 10, true), abci.Event{
		Type:       types.EventCastVoteType,
		Attributes: []abci.EventAttribute{{Key: "proposal", Value: "x"}},
	})
	c := newIndexer(t, src)
	assert.ErrorIs(t, c.Sync(context.Background()), errDecodeEvent)
	assert.Equal(t, int64(1), c.Height)
	_, _, err := c.getMember(alice)
	assert.Error(t, err)
}

func post(t *testing.T, s *Service, path string, body any, v any) int {
	dat, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(dat))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if v != nil && w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
	}
	return w.Code
}

func TestService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	src := &fakeSource{}
	fillChain(src)
	c := newIndexer(t, src)
	require.NoError(t, c.Sync(context.Background()))
	s := NewService("127.0.0.1:0", c)

	var proposals GetProposalResponse
	require.Equal(t, http.StatusOK, post(t, s, "/getProposals", GetProposalsReq{}, &proposals))
	assert.Equal(t, uint64(1), proposals.Total)
	require.Len(t, proposals.Proposals, 1)
	assert.Equal(t, "active", proposals.Proposals[0].State)
	assert.Len(t, proposals.Proposals[0].Votes, 1)

	require.Equal(t, http.StatusOK, post(t, s, "/getProposals", GetProposalsReq{Proposer: bob}, &proposals))
	assert.Equal(t, uint64(0), proposals.Total)
	assert.Empty(t, proposals.Proposals)

	assert.Equal(t, http.StatusNotFound, post(t, s, "/getProposals", GetProposalsReq{ProposalId: 9}, nil))

	var votes GetVotesResponse
	require.Equal(t, http.StatusOK, post(t, s, "/getVotes", GetVotesReq{Voter: alice}, &votes))
	require.Len(t, votes.Votes, 1)
	assert.Equal(t, "yes", votes.Votes[0].Reason)
	assert.Equal(t, http.StatusBadRequest, post(t, s, "/getVotes", GetVotesReq{}, nil))

	var members GetMembersResponse
	require.Equal(t, http.StatusOK, post(t, s, "/getMembers", GetMembersReq{}, &members))
	assert.Equal(t, uint64(1), members.Total)
	assert.Equal(t, "11", members.Contributed)
	require.Len(t, members.Members, 1)
	assert.Equal(t, alice, members.Members[0].Member.Address)
	assert.Equal(t, t0, members.Members[0].Member.MemberSince)

	require.Equal(t, http.StatusOK, post(t, s, "/getMembers", GetMembersReq{Address: bob}, &members))
	require.Len(t, members.Members, 1)
	assert.False(t, members.Members[0].Member.IsMember)
	assert.Len(t, members.Members[0].Contributions, 1)
}
