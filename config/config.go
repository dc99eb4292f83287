package config

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	daocrypto "github.com/calehh/collector-dao/crypto"
	"github.com/calehh/collector-dao/state"
	"github.com/cometbft/cometbft/config"
	"github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
	"github.com/ethereum/go-ethereum/common"
)

const (
	DefaultHomeDir      = "$HOME/.dao"
	OwnerKeyFile        = "owner_priv_key"
	DefaultIndexerDB    = "indexer.db"
	DefaultIndexerAddr  = "127.0.0.1:8080"
	DefaultPollInterval = 2 * time.Second
)

// DaoConfig is the [dao] section of config.toml. The governance values are
// written into genesis by init; a running chain reads them from its state.
type DaoConfig struct {
	Home string `mapstructure:"-"`

	Name                string        `mapstructure:"name"`
	BallotChainId       int64         `mapstructure:"ballot_chain_id"`
	VerifyingContract   string        `mapstructure:"verifying_contract"`
	MembershipThreshold string        `mapstructure:"membership_threshold"`
	VotingDelay         time.Duration `mapstructure:"voting_delay"`
	VotingPeriod        time.Duration `mapstructure:"voting_period"`
	TimelockDelay       time.Duration `mapstructure:"timelock_delay"`
	GracePeriod         time.Duration `mapstructure:"grace_period"`
	Marketplaces        []string      `mapstructure:"marketplaces"`

	IndexerEnable       bool          `mapstructure:"indexer_enable"`
	IndexerListen       string        `mapstructure:"indexer_listen"`
	IndexerPollInterval time.Duration `mapstructure:"indexer_poll_interval"`
}

func DefaultDaoConfig(home string) *DaoConfig {
	return &DaoConfig{
		Home:                home,
		Name:                state.DefaultOrganizationName,
		BallotChainId:       state.DefaultBallotChainId,
		VerifyingContract:   state.DefaultVerifyingContract.Hex(),
		MembershipThreshold: "1",
		VotingDelay:         time.Duration(state.DefaultVotingDelay) * time.Second,
		VotingPeriod:        time.Duration(state.DefaultVotingPeriod) * time.Second,
		TimelockDelay:       time.Duration(state.DefaultTimelockDelay) * time.Second,
		GracePeriod:         time.Duration(state.DefaultGracePeriod) * time.Second,
		Marketplaces:        []string{state.DefaultMarketplace.Hex()},
		IndexerEnable:       true,
		IndexerListen:       DefaultIndexerAddr,
		IndexerPollInterval: DefaultPollInterval,
	}
}

func (c *DaoConfig) Validate() error {
	if c.Name == "" {
		return errors.New("dao.name is empty")
	}
	if c.BallotChainId <= 0 {
		return errors.New("dao.ballot_chain_id must be positive")
	}
	if !common.IsHexAddress(c.VerifyingContract) {
		return fmt.Errorf("dao.verifying_contract %q is not an address", c.VerifyingContract)
	}
	for _, m := range c.Marketplaces {
		if !common.IsHexAddress(m) {
			return fmt.Errorf("dao.marketplaces: %q is not an address", m)
		}
	}
	threshold, err := ParseEther(c.MembershipThreshold)
	if err != nil {
		return fmt.Errorf("dao.membership_threshold: %w", err)
	}
	if threshold.Sign() <= 0 {
		return errors.New("dao.membership_threshold must be positive")
	}
	for name, d := range map[string]time.Duration{
		"voting_delay":   c.VotingDelay,
		"voting_period":  c.VotingPeriod,
		"timelock_delay": c.TimelockDelay,
		"grace_period":   c.GracePeriod,
	} {
		if d < time.Second {
			return fmt.Errorf("dao.%s must be at least one second", name)
		}
	}
	if c.IndexerEnable && c.IndexerPollInterval <= 0 {
		return errors.New("dao.indexer_poll_interval must be positive")
	}
	return nil
}

// Params turns the section into chain parameters.
func (c *DaoConfig) Params() (*state.Params, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	threshold, _ := ParseEther(c.MembershipThreshold)
	markets := make([]common.Address, len(c.Marketplaces))
	for i, m := range c.Marketplaces {
		markets[i] = common.HexToAddress(m)
	}
	p := &state.Params{
		VotingDelay:         uint64(c.VotingDelay / time.Second),
		VotingPeriod:        uint64(c.VotingPeriod / time.Second),
		TimelockDelay:       uint64(c.TimelockDelay / time.Second),
		GracePeriod:         uint64(c.GracePeriod / time.Second),
		MembershipThreshold: threshold,
		Domain: daocrypto.Domain{
			Name:              c.Name,
			ChainId:           big.NewInt(c.BallotChainId),
			VerifyingContract: common.HexToAddress(c.VerifyingContract),
		},
		Marketplaces: markets,
	}
	return p, p.Validate()
}

func (c *DaoConfig) IndexerDBPath() string {
	return filepath.Join(c.Home, "data", DefaultIndexerDB)
}

type Config struct {
	*config.Config `mapstructure:",squash"`

	Dao *DaoConfig `mapstructure:"dao"`
}

func (c *Config) ValidateBasic() error {
	if err := c.Config.ValidateBasic(); err != nil {
		return err
	}
	return c.Dao.Validate()
}

func DefaultConfig(home string) *Config {
	if len(home) == 0 {
		home = os.ExpandEnv(DefaultHomeDir)
	}
	config := &Config{
		DefaultDAOCometConfig(),
		DefaultDaoConfig(home),
	}
	config.SetRoot(home)
	_ = os.MkdirAll(home+"/config", 0755)
	return config
}

func OwnerKeyPath(home string) string {
	return filepath.Join(home, "config", OwnerKeyFile)
}

// InitializeOwner creates the owner account key unless one exists and
// returns its address.
func InitializeOwner(home string) (owner common.Address, err error) {
	path := OwnerKeyPath(home)
	if _, err = os.Stat(path); err == nil {
		return daocrypto.LoadKeyFile(path).Address(), nil
	}
	if err = os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return
	}
	key, err := daocrypto.GenerateKey()
	if err != nil {
		return
	}
	if err = key.Save(path); err != nil {
		return
	}
	return key.Address(), nil
}

func InitializeNodeValidatorFiles(config *Config, privKey crypto.PrivKey) (nodeID string, pk crypto.PubKey, err error) {
	nodeKey, err := p2p.LoadOrGenNodeKey(config.NodeKeyFile())
	if err != nil {
		return "", nil, err
	}
	nodeID = string(nodeKey.ID())

	pvKeyFile := config.PrivValidatorKeyFile()
	if err := os.MkdirAll(filepath.Dir(pvKeyFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvKeyFile), err)
	}

	pvStateFile := config.PrivValidatorStateFile()
	if err := os.MkdirAll(filepath.Dir(pvStateFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvStateFile), err)
	}

	var filePV *privval.FilePV
	if privKey == nil {
		filePV = privval.LoadOrGenFilePV(pvKeyFile, pvStateFile)
	} else {
		filePV = privval.NewFilePV(privKey, pvKeyFile, pvStateFile)
		filePV.Save()
	}
	pukey, err := filePV.GetPubKey()
	if err != nil {
		return "", nil, err
	}

	return nodeID, pukey, nil
}

func DefaultDAOCometConfig() *config.Config {
	cometConfig := config.DefaultConfig()
	cometConfig.Consensus.TimeoutPropose = time.Second * 3
	cometConfig.Consensus.TimeoutPrevote = time.Second * 1
	cometConfig.Consensus.TimeoutPrecommit = time.Second * 1
	cometConfig.Consensus.TimeoutCommit = time.Millisecond * 1200
	return cometConfig
}
