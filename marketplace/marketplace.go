package marketplace

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/calehh/collector-dao/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

var (
	ErrNotListed      = errors.New("nft not listed")
	ErrIncorrectValue = errors.New("incorrect value")
	ErrInvalidPrice   = errors.New("invalid price")
)

const (
	keyListing  = "mkt/%x/l/%x/%s"
	keyOwner    = "mkt/%x/o/%x/%s"
	keyProceeds = "mkt/%x/b/%x"
)

type Listing struct {
	Price  *big.Int
	Seller common.Address
}

// Marketplace sells NFTs at fixed prices. All of its records live in the
// store it is handed, so purchases made during a failed execution are
// discarded together with everything else.
type Marketplace struct {
	address common.Address
}

func New(address common.Address) *Marketplace {
	return &Marketplace{address: address}
}

func (m *Marketplace) Address() common.Address {
	return m.address
}

func (m *Marketplace) key(format string, nftContract common.Address, nftId *big.Int) []byte {
	return []byte(fmt.Sprintf(format, m.address[:], nftContract[:], nftId.String()))
}

func (m *Marketplace) List(store types.Store, nftContract common.Address, nftId *big.Int, price *big.Int, seller common.Address) error {
	if price == nil || price.Sign() <= 0 {
		return ErrInvalidPrice
	}
	val, err := rlp.EncodeToBytes(&Listing{Price: price, Seller: seller})
	if err != nil {
		return err
	}
	return store.Set(m.key(keyListing, nftContract, nftId), val)
}

func (m *Marketplace) GetListing(store types.Store, nftContract common.Address, nftId *big.Int) (*Listing, error) {
	val, err := store.Get(m.key(keyListing, nftContract, nftId))
	if err != nil {
		return nil, err
	}
	if len(val) == 0 {
		return nil, ErrNotListed
	}
	l := new(Listing)
	if err = rlp.DecodeBytes(val, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (m *Marketplace) GetPrice(store types.Store, nftContract common.Address, nftId *big.Int) (*big.Int, error) {
	l, err := m.GetListing(store, nftContract, nftId)
	if err != nil {
		return nil, err
	}
	return l.Price, nil
}

// Buy transfers the NFT to buyer. value must equal the listed price; the
// seller is credited with it.
func (m *Marketplace) Buy(store types.Store, nftContract common.Address, nftId *big.Int, buyer common.Address, value *big.Int) error {
	l, err := m.GetListing(store, nftContract, nftId)
	if err != nil {
		return err
	}
	if value == nil || value.Cmp(l.Price) != 0 {
		return fmt.Errorf("%w: price %s", ErrIncorrectValue, l.Price)
	}
	if err = store.Set(m.key(keyListing, nftContract, nftId), nil); err != nil {
		return err
	}
	if err = store.Set(m.key(keyOwner, nftContract, nftId), buyer.Bytes()); err != nil {
		return err
	}
	proceeds, err := m.Proceeds(store, l.Seller)
	if err != nil {
		return err
	}
	proceeds.Add(proceeds, value)
	return store.Set([]byte(fmt.Sprintf(keyProceeds, m.address[:], l.Seller[:])), proceeds.Bytes())
}

// OwnerOf returns the buyer of an NFT sold here, or the zero address.
func (m *Marketplace) OwnerOf(store types.Store, nftContract common.Address, nftId *big.Int) (common.Address, error) {
	val, err := store.Get(m.key(keyOwner, nftContract, nftId))
	if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(val), nil
}

func (m *Marketplace) Proceeds(store types.Store, seller common.Address) (*big.Int, error) {
	val, err := store.Get([]byte(fmt.Sprintf(keyProceeds, m.address[:], seller[:])))
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(val), nil
}
