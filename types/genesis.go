package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/cometbft/cometbft/crypto"
	cmtjson "github.com/cometbft/cometbft/libs/json"
	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/ethereum/go-ethereum/common"
)

type GenesisValidator struct {
	Address crypto.Address `json:"address"`
	PubKey  crypto.PubKey  `json:"pub_key"`
	Power   int64          `json:"power"`
	Name    string         `json:"name"`
}

// GenesisDoc defines the initial conditions for a CometBFT blockchain, in particular its validator set.
type GenesisDoc struct {
	GenesisTime     time.Time                 `json:"genesis_time"`
	ChainID         string                    `json:"chain_id"`
	InitialHeight   int64                     `json:"initial_height"`
	ConsensusParams *cmttypes.ConsensusParams `json:"consensus_params,omitempty"`
	Validators      []GenesisValidator        `json:"validators"`
	AppHash         []byte                    `json:"app_hash"`
	AppState        json.RawMessage           `json:"app_state"`
}

// SaveAs is a utility method for saving GenensisDoc as a JSON file.
func (genDoc *GenesisDoc) SaveAs(file string) error {
	genDocBytes, err := cmtjson.MarshalIndent(genDoc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(file, genDocBytes, 0o600)
}

func (ag *GenesisDoc) ValidateAndComplete() error {
	if ag.ChainID == "" {
		return errors.New("genesis doc must include non-empty chain_id")
	}

	if ag.InitialHeight < 0 {
		return fmt.Errorf("initial_height cannot be negative (got %v)", ag.InitialHeight)
	}

	if ag.InitialHeight == 0 {
		ag.InitialHeight = 1
	}

	if ag.GenesisTime.IsZero() {
		ag.GenesisTime = time.Now().Round(0).UTC()
	}

	return nil
}

func ExportGenesisFile(genesis *GenesisDoc, genFile string) error {
	if err := genesis.ValidateAndComplete(); err != nil {
		return err
	}
	return genesis.SaveAs(genFile)
}

const DAOModuleName = "dao"
const DefaultPower = 10

// GenesisContribution is a contribution applied at genesis time, the way the
// organization's deployer becomes its first member.
type GenesisContribution struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

// GenesisListing puts an NFT up for sale on a marketplace known to the chain.
type GenesisListing struct {
	Marketplace string `json:"marketplace"`
	NftContract string `json:"nft_contract"`
	NftId       string `json:"nft_id"`
	Price       string `json:"price"`
	Seller      string `json:"seller"`
}

// AppState is the application part of the genesis file.
type AppState struct {
	Params        json.RawMessage       `json:"params,omitempty"`
	Contributions []GenesisContribution `json:"contributions"`
	Listings      []GenesisListing      `json:"listings,omitempty"`
}

func (st *AppState) Validate() error {
	for i, c := range st.Contributions {
		if !common.IsHexAddress(c.Address) {
			return fmt.Errorf("contribution %d: invalid address %q", i, c.Address)
		}
		if _, ok := new(big.Int).SetString(c.Amount, 10); !ok {
			return fmt.Errorf("contribution %d: invalid amount %q", i, c.Amount)
		}
	}
	for i, l := range st.Listings {
		if !common.IsHexAddress(l.Marketplace) || !common.IsHexAddress(l.NftContract) || !common.IsHexAddress(l.Seller) {
			return fmt.Errorf("listing %d: invalid address", i)
		}
		if _, ok := new(big.Int).SetString(l.NftId, 10); !ok {
			return fmt.Errorf("listing %d: invalid nft id %q", i, l.NftId)
		}
		if _, ok := new(big.Int).SetString(l.Price, 10); !ok {
			return fmt.Errorf("listing %d: invalid price %q", i, l.Price)
		}
	}
	return nil
}

const (
	FlagHome      = "home"
	FlagChainID   = "chain-id"
	FlagOverwrite = "overwrite"
)
