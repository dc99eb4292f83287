package indexer

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/calehh/collector-dao/state"
	"github.com/calehh/collector-dao/types"
	abci "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	comethttp "github.com/cometbft/cometbft/rpc/client/http"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
)

// BlockSource is the part of the node RPC the indexer reads.
type BlockSource interface {
	Status(ctx context.Context) (*coretypes.ResultStatus, error)
	Block(ctx context.Context, height *int64) (*coretypes.ResultBlock, error)
	BlockResults(ctx context.Context, height *int64) (*coretypes.ResultBlockResults, error)
}

// ChainIndexer follows committed blocks and mirrors the organization events
// into sqlite for the query service.
type ChainIndexer struct {
	logger        cmtlog.Logger
	Url           string
	Height        int64
	Time          uint64
	gracePeriod   uint64
	db            *gorm.DB
	cli           BlockSource
	eventHandlers map[string]eventHandler
}

func OpenDB(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Height{}, &Member{}, &Contribution{}, &Proposal{}, &Vote{}, &Execution{}).Error; err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// NewChainIndexer indexes the node at chainUrl into the database at dbPath.
func NewChainIndexer(logger cmtlog.Logger, dbPath string, chainUrl string, gracePeriod uint64) (*ChainIndexer, error) {
	logger.Info("NewChainIndexer", "dbPath", dbPath, "url", chainUrl)
	cli, err := comethttp.New(chainUrl, "/websocket")
	if err != nil {
		return nil, err
	}
	db, err := OpenDB(dbPath)
	if err != nil {
		return nil, err
	}
	c, err := newChainIndexer(logger, db, cli, gracePeriod)
	if err != nil {
		return nil, err
	}
	c.Url = chainUrl
	return c, nil
}

func newChainIndexer(logger cmtlog.Logger, db *gorm.DB, cli BlockSource, gracePeriod uint64) (*ChainIndexer, error) {
	h := Height{Id: 1}
	if err := db.First(&h).Error; err != nil && !gorm.IsRecordNotFoundError(err) {
		return nil, err
	}
	c := &ChainIndexer{
		logger:      logger.With("module", "indexer"),
		Height:      int64(h.Height + 1),
		Time:        h.Time,
		gracePeriod: gracePeriod,
		db:          db,
		cli:         cli,
	}
	c.eventHandlers = map[string]eventHandler{
		types.EventContributionType:       c.handleEventContribution,
		types.EventCreateProposalType:     c.handleEventCreateProposal,
		types.EventCastVoteType:           c.handleEventCastVote,
		types.EventProposalQueuedType:     c.handleEventProposalQueued,
		types.EventExecuteTransactionType: c.handleEventExecuteTransaction,
		types.EventProposalExecutedType:   c.handleEventProposalExecuted,
	}
	return c, nil
}

func (c *ChainIndexer) Close() error {
	return c.db.Close()
}

type eventHandler func(tx *gorm.DB, event abci.Event, height int64) error

var errDecodeEvent = errors.New("decode event fail")

func (c *ChainIndexer) handleEvent(tx *gorm.DB, event abci.Event, height int64) error {
	if h, ok := c.eventHandlers[event.Type]; ok {
		return h(tx, event, height)
	}
	return nil
}

func (c *ChainIndexer) handleEventContribution(tx *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventContribution(event)
	if ev == nil {
		return errDecodeEvent
	}
	var m Member
	if err := tx.Where("address = ?", ev.Member).First(&m).Error; err != nil && !gorm.IsRecordNotFoundError(err) {
		return err
	}
	if ev.IsMember && !m.IsMember {
		m.MemberSince = c.Time
	}
	m.Address = ev.Member
	m.Contributed = ev.Total.String()
	m.IsMember = ev.IsMember
	if err := tx.Save(&m).Error; err != nil {
		return err
	}
	return tx.Create(&Contribution{
		Member: ev.Member,
		Amount: ev.Amount.String(),
		Total:  ev.Total.String(),
		Height: uint64(height),
	}).Error
}

func (c *ChainIndexer) handleEventCreateProposal(tx *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventCreateProposal(event)
	if ev == nil {
		return errDecodeEvent
	}
	return tx.Save(&Proposal{
		Id:             ev.Proposal,
		Proposer:       ev.Proposer,
		Description:    ev.Description,
		Targets:        strings.Join(ev.Targets, ","),
		Values:         strings.Join(ev.Values, ","),
		Calldatas:      strings.Join(ev.Calldatas, ","),
		CreatedAt:      ev.CreatedAt,
		ActiveAt:       ev.ActiveAt,
		VotingDeadline: ev.VotingDeadline,
		MemberSnapshot: ev.MemberSnapshot,
		NewHeight:      uint64(height),
	}).Error
}

func (c *ChainIndexer) handleEventCastVote(tx *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventCastVote(event)
	if ev == nil {
		return errDecodeEvent
	}
	var column string
	switch ev.Support {
	case types.VoteFor:
		column = "for_votes"
	case types.VoteAgainst:
		column = "against_votes"
	case types.VoteAbstain:
		column = "abstain_votes"
	default:
		return errDecodeEvent
	}
	err := tx.Model(&Proposal{}).Where("id = ?", ev.Proposal).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1)).Error
	if err != nil {
		return err
	}
	return tx.Create(&Vote{
		Proposal: ev.Proposal,
		Voter:    ev.Voter,
		Support:  uint8(ev.Support),
		Reason:   ev.Reason,
		Height:   uint64(height),
	}).Error
}

func (c *ChainIndexer) handleEventProposalQueued(tx *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventProposalQueued(event)
	if ev == nil {
		return errDecodeEvent
	}
	return tx.Model(&Proposal{}).Where("id = ?", ev.Proposal).Updates(map[string]interface{}{
		"queued":       true,
		"eta":          ev.Eta,
		"queue_height": uint64(height),
	}).Error
}

func (c *ChainIndexer) handleEventExecuteTransaction(tx *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventExecuteTransaction(event)
	if ev == nil {
		return errDecodeEvent
	}
	return tx.Create(&Execution{
		Proposal:    ev.Proposal,
		ActionIndex: ev.Index,
		Target:      ev.Target,
		Value:       ev.Value.String(),
		Calldata:    hexutil.Encode(ev.Calldata),
		Height:      uint64(height),
	}).Error
}

func (c *ChainIndexer) handleEventProposalExecuted(tx *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventProposalExecuted(event)
	if ev == nil {
		return errDecodeEvent
	}
	return tx.Model(&Proposal{}).Where("id = ?", ev.Proposal).Updates(map[string]interface{}{
		"executed":       true,
		"execute_height": uint64(height),
	}).Error
}

// indexBlock stores the events of one block together with the new height,
// all in one database transaction.
func (c *ChainIndexer) indexBlock(ctx context.Context, height int64) error {
	blk, err := c.cli.Block(ctx, &height)
	if err != nil {
		return err
	}
	results, err := c.cli.BlockResults(ctx, &height)
	if err != nil {
		return err
	}
	blkTime := uint64(blk.Block.Time.Unix())
	prevTime := c.Time
	c.Time = blkTime

	tx := c.db.Begin()
	for _, res := range results.TxsResults {
		if res.Code != 0 {
			continue
		}
		for _, event := range res.Events {
			if err = c.handleEvent(tx, event, height); err != nil {
				c.logger.Error("handle event fail", "height", height, "type", event.Type, "err", err)
				tx.Rollback()
				c.Time = prevTime
				return err
			}
		}
	}
	if err = tx.Save(&Height{Id: 1, Height: uint64(height), Time: blkTime}).Error; err != nil {
		tx.Rollback()
		c.Time = prevTime
		return err
	}
	return tx.Commit().Error
}

// Sync indexes every block up to the latest one the node reports.
func (c *ChainIndexer) Sync(ctx context.Context) error {
	status, err := c.cli.Status(ctx)
	if err != nil {
		return err
	}
	for c.Height <= status.SyncInfo.LatestBlockHeight {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err = c.indexBlock(ctx, c.Height); err != nil {
			return err
		}
		c.Height++
	}
	return nil
}

func (c *ChainIndexer) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Sync(ctx); err != nil {
				c.logger.Error("indexer sync fail", "height", c.Height, "err", err)
				c.reconnect()
			}
		}
	}
}

func (c *ChainIndexer) reconnect() {
	cli, ok := c.cli.(*comethttp.HTTP)
	if !ok || cli.IsRunning() {
		return
	}
	ncli, err := comethttp.New(c.Url, "/websocket")
	if err != nil {
		c.logger.Error("reconnect fail", "err", err)
		return
	}
	c.cli = ncli
}

// State derives the lifecycle state of p as of the last indexed block.
func (c *ChainIndexer) State(p *Proposal) types.ProposalState {
	return state.Lifecycle(p.proposal(), p.tally(), c.Time, c.gracePeriod)
}

func (p *Proposal) proposal() *types.Proposal {
	return &types.Proposal{
		Id:             p.Id,
		CreatedAt:      p.CreatedAt,
		ActiveAt:       p.ActiveAt,
		VotingDeadline: p.VotingDeadline,
		MemberSnapshot: p.MemberSnapshot,
		Queued:         p.Queued,
		Eta:            p.Eta,
		Executed:       p.Executed,
	}
}

func (p *Proposal) tally() types.Tally {
	return types.Tally{For: p.ForVotes, Against: p.AgainstVotes, Abstain: p.AbstainVotes}
}

func (c *ChainIndexer) getProposals(page int, pageSize int) ([]Proposal, uint64, error) {
	var proposals []Proposal
	err := c.db.Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&proposals).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Proposal{}).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return proposals, total, nil
}

func (c *ChainIndexer) getProposalById(proposalId uint64) (Proposal, error) {
	var proposal Proposal
	err := c.db.Where("id = ?", proposalId).First(&proposal).Error
	if err != nil {
		return Proposal{}, err
	}
	return proposal, nil
}

func (c *ChainIndexer) getProposalsByProposer(proposer string, page int, pageSize int) ([]Proposal, uint64, error) {
	var proposals []Proposal
	err := c.db.Where("proposer = ?", proposer).Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&proposals).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Proposal{}).Where("proposer = ?", proposer).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return proposals, total, nil
}

func (c *ChainIndexer) getVotes(query string, arg interface{}, page int, pageSize int) ([]Vote, uint64, error) {
	var votes []Vote
	err := c.db.Where(query, arg).Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&votes).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Vote{}).Where(query, arg).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return votes, total, nil
}

func (c *ChainIndexer) getExecutions(proposal uint64) ([]Execution, error) {
	var executions []Execution
	err := c.db.Where("proposal = ?", proposal).Order("action_index asc").Find(&executions).Error
	if err != nil {
		return nil, err
	}
	return executions, nil
}

func (c *ChainIndexer) getMembers(page int, pageSize int) ([]Member, uint64, error) {
	var members []Member
	err := c.db.Where("is_member = ?", true).Order("member_since asc").Offset(page * pageSize).Limit(pageSize).Find(&members).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Member{}).Where("is_member = ?", true).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

func (c *ChainIndexer) getMember(address string) (Member, []Contribution, error) {
	var m Member
	if err := c.db.Where("address = ?", address).First(&m).Error; err != nil {
		return Member{}, nil, err
	}
	var contributions []Contribution
	if err := c.db.Where("member = ?", address).Order("id asc").Find(&contributions).Error; err != nil {
		return Member{}, nil, err
	}
	return m, contributions, nil
}

// contributedTotal sums what the indexed members contributed. Spending is
// not indexed.
func (c *ChainIndexer) contributedTotal() (*big.Int, error) {
	var members []Member
	if err := c.db.Find(&members).Error; err != nil {
		return nil, err
	}
	total := new(big.Int)
	for _, m := range members {
		v, ok := new(big.Int).SetString(m.Contributed, 10)
		if ok {
			total.Add(total, v)
		}
	}
	return total, nil
}
