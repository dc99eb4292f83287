package executor

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/calehh/collector-dao/marketplace"
	"github.com/calehh/collector-dao/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const OrganizationABI = `[
	{
		"type": "function",
		"name": "buyNftFromMarketplace",
		"stateMutability": "payable",
		"inputs": [
			{"name": "marketplace", "type": "address"},
			{"name": "nftContract", "type": "address"},
			{"name": "nftId", "type": "uint256"}
		],
		"outputs": []
	}
]`

const MarketplaceABI = `[
	{
		"type": "function",
		"name": "buy",
		"stateMutability": "payable",
		"inputs": [
			{"name": "nftContract", "type": "address"},
			{"name": "nftId", "type": "uint256"}
		],
		"outputs": []
	},
	{
		"type": "function",
		"name": "getPrice",
		"stateMutability": "view",
		"inputs": [
			{"name": "nftContract", "type": "address"},
			{"name": "nftId", "type": "uint256"}
		],
		"outputs": [{"name": "price", "type": "uint256"}]
	}
]`

var (
	organizationABI = mustParseABI(OrganizationABI)
	marketplaceABI  = mustParseABI(MarketplaceABI)
)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

func PackBuyNftFromMarketplace(market, nftContract common.Address, nftId *big.Int) ([]byte, error) {
	return organizationABI.Pack("buyNftFromMarketplace", market, nftContract, nftId)
}

func PackMarketplaceBuy(nftContract common.Address, nftId *big.Int) ([]byte, error) {
	return marketplaceABI.Pack("buy", nftContract, nftId)
}

func unpack(def abi.ABI, calldata []byte) (*abi.Method, []any, error) {
	if len(calldata) < 4 {
		return nil, nil, ErrRevertedWithoutMessage
	}
	method, err := def.MethodById(calldata[:4])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %x", ErrUnknownMethod, calldata[:4])
	}
	args, err := method.Inputs.Unpack(calldata[4:])
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", method.Name, err)
	}
	return method, args, nil
}

// Organization is the call surface of the organization itself. Proposals
// target it to buy NFTs with treasury value.
type Organization struct {
	address common.Address
	markets map[common.Address]*marketplace.Marketplace
}

func NewOrganization(address common.Address, markets ...*marketplace.Marketplace) *Organization {
	o := &Organization{
		address: address,
		markets: make(map[common.Address]*marketplace.Marketplace),
	}
	for _, m := range markets {
		o.markets[m.Address()] = m
	}
	return o
}

func (o *Organization) Address() common.Address {
	return o.address
}

// Call runs buyNftFromMarketplace: it pays the listed price out of the value
// it was sent and keeps the NFT. What is left of the value stays with the
// organization.
func (o *Organization) Call(ctx context.Context, store types.Store, value *big.Int, calldata []byte) (*big.Int, error) {
	method, args, err := unpack(organizationABI, calldata)
	if err != nil {
		return nil, err
	}
	if method.Name != "buyNftFromMarketplace" {
		return nil, ErrUnknownMethod
	}
	marketAddr := args[0].(common.Address)
	nftContract := args[1].(common.Address)
	nftId := args[2].(*big.Int)
	market, ok := o.markets[marketAddr]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMarketplace, marketAddr.Hex())
	}
	price, err := market.GetPrice(store, nftContract, nftId)
	if err != nil {
		return nil, err
	}
	if price.Cmp(value) > 0 {
		return nil, fmt.Errorf("%w: price %s, value %s", ErrInsufficientValue, price, value)
	}
	if err = market.Buy(store, nftContract, nftId, o.address, price); err != nil {
		return nil, err
	}
	return new(big.Int).Sub(value, price), nil
}

// MarketplaceTarget exposes a marketplace's buy entry point to proposals that
// call it directly. The organization ends up owning the NFT.
type MarketplaceTarget struct {
	market *marketplace.Marketplace
	buyer  common.Address
}

func NewMarketplaceTarget(market *marketplace.Marketplace, buyer common.Address) *MarketplaceTarget {
	return &MarketplaceTarget{market: market, buyer: buyer}
}

func (t *MarketplaceTarget) Call(ctx context.Context, store types.Store, value *big.Int, calldata []byte) (*big.Int, error) {
	method, args, err := unpack(marketplaceABI, calldata)
	if err != nil {
		return nil, err
	}
	nftContract := args[0].(common.Address)
	nftId := args[1].(*big.Int)
	switch method.Name {
	case "buy":
		return new(big.Int), t.market.Buy(store, nftContract, nftId, t.buyer, value)
	case "getPrice":
		_, err = t.market.GetPrice(store, nftContract, nftId)
		return value, err
	}
	return nil, ErrUnknownMethod
}

// NewOrganizationRouter routes calls to the organization at self and to each market.
func NewOrganizationRouter(logger cmtlog.Logger, self common.Address, markets ...*marketplace.Marketplace) *Router {
	r := NewRouter(logger)
	r.Register(self, NewOrganization(self, markets...))
	for _, m := range markets {
		r.Register(m.Address(), NewMarketplaceTarget(m, self))
	}
	return r
}
