package executor

import (
	"context"
	"errors"
	"math/big"

	"github.com/calehh/collector-dao/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrRevertedWithoutMessage = errors.New("call reverted without message")
	ErrUnknownMethod          = errors.New("unknown method")
	ErrUnknownMarketplace     = errors.New("unknown marketplace")
	ErrInsufficientValue      = errors.New("insufficient value")
)

// Target is an addressable service a proposal action can call. It receives
// the value sent with the call and reports how much of it flowed back to the
// organization.
type Target interface {
	Call(ctx context.Context, store types.Store, value *big.Int, calldata []byte) (returned *big.Int, err error)
}

type TargetFunc func(ctx context.Context, store types.Store, value *big.Int, calldata []byte) (*big.Int, error)

func (f TargetFunc) Call(ctx context.Context, store types.Store, value *big.Int, calldata []byte) (*big.Int, error) {
	return f(ctx, store, value, calldata)
}

// Router dispatches actions to registered targets. Any other address is a
// plain account: the value is transferred and the payload ignored.
type Router struct {
	logger  cmtlog.Logger
	targets map[common.Address]Target
}

func NewRouter(logger cmtlog.Logger) *Router {
	return &Router{
		logger:  logger.With("module", "executor"),
		targets: make(map[common.Address]Target),
	}
}

func (r *Router) Register(addr common.Address, t Target) {
	r.targets[addr] = t
}

func (r *Router) Target(addr common.Address) (Target, bool) {
	t, ok := r.targets[addr]
	return t, ok
}

func (r *Router) Execute(ctx context.Context, store types.Store, action types.Action) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, ok := r.targets[action.Target]
	if !ok {
		r.logger.Debug("transfer", "to", action.Target.Hex(), "value", action.Value.String())
		return new(big.Int), nil
	}
	returned, err := t.Call(ctx, store, action.Value, action.Calldata)
	if err != nil {
		r.logger.Debug("call failed", "target", action.Target.Hex(), "err", err)
		return nil, err
	}
	if returned == nil {
		returned = new(big.Int)
	}
	return returned, nil
}
