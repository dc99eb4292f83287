package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/calehh/collector-dao/config"
	"github.com/calehh/collector-dao/types"
	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/spf13/cobra"
)

const (
	flagContribution = "contribution"
	flagListing      = "listing"
)

type printInfo struct {
	Moniker    string          `json:"moniker" yaml:"moniker"`
	ChainID    string          `json:"chain_id" yaml:"chain_id"`
	NodeID     string          `json:"node_id" yaml:"node_id"`
	Owner      string          `json:"owner" yaml:"owner"`
	AppMessage json.RawMessage `json:"app_message" yaml:"app_message"`
}

func displayInfo(info printInfo) error {
	out, err := json.MarshalIndent(info, "", " ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(os.Stderr, "%s\n", out)

	return err
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize private validator, p2p, genesis, owner key and application configuration files",
	Long: `Initialize the node's configuration files. The owner account gets a
genesis contribution so that the organization starts with one member.`,
	Args: cobra.ExactArgs(0),
	RunE: initRun,
}

func init() {
	initCmd.Flags().BoolP(types.FlagOverwrite, "o", false, "overwrite the genesis.json file")
	initCmd.Flags().String(types.FlagChainID, "", "genesis file chain-id, if left blank will be randomly created")
	initCmd.Flags().String(types.FlagHome, "", "node home directory")
	initCmd.Flags().String(flagContribution, "1", "owner genesis contribution, in whole units")
	initCmd.Flags().StringSlice(flagListing, nil, "genesis NFT listing marketplace:nftContract:nftId:price:seller, price in base units")
}

func parseListing(s string) (types.GenesisListing, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 5 {
		return types.GenesisListing{}, fmt.Errorf("invalid listing %q", s)
	}
	return types.GenesisListing{
		Marketplace: parts[0],
		NftContract: parts[1],
		NftId:       parts[2],
		Price:       parts[3],
		Seller:      parts[4],
	}, nil
}

func initRun(cmd *cobra.Command, args []string) error {
	home, _ := cmd.Flags().GetString(types.FlagHome)
	chainID, _ := cmd.Flags().GetString(types.FlagChainID)
	overwrite, _ := cmd.Flags().GetBool(types.FlagOverwrite)
	contribution, _ := cmd.Flags().GetString(flagContribution)
	listingArgs, _ := cmd.Flags().GetStringSlice(flagListing)

	if chainID == "" {
		chainID = fmt.Sprintf("dao-chain-%v", rand.Uint64())
	}
	appConfig := config.DefaultConfig(home)
	genFile := appConfig.GenesisFile()
	if _, err := os.Stat(genFile); err == nil && !overwrite {
		return fmt.Errorf("genesis file %s exists, use --%s to replace it", genFile, types.FlagOverwrite)
	}

	nodeID, pk, err := config.InitializeNodeValidatorFiles(appConfig, nil)
	if err != nil {
		return err
	}
	owner, err := config.InitializeOwner(appConfig.RootDir)
	if err != nil {
		return err
	}

	params, err := appConfig.Dao.Params()
	if err != nil {
		return err
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return err
	}
	appState := &types.AppState{Params: paramsJSON}
	amount, err := config.ParseEther(contribution)
	if err != nil {
		return fmt.Errorf("--%s: %w", flagContribution, err)
	}
	if amount.Sign() > 0 {
		appState.Contributions = append(appState.Contributions, types.GenesisContribution{
			Address: owner.Hex(),
			Amount:  amount.String(),
		})
	}
	for _, s := range listingArgs {
		l, err := parseListing(s)
		if err != nil {
			return err
		}
		appState.Listings = append(appState.Listings, l)
	}
	if err = appState.Validate(); err != nil {
		return err
	}
	appStateJSON, err := json.Marshal(appState)
	if err != nil {
		return err
	}

	vals := []types.GenesisValidator{{Address: pk.Address(), PubKey: pk, Power: types.DefaultPower}}
	appGenesis := &types.GenesisDoc{
		GenesisTime:     time.Now(),
		ChainID:         chainID,
		ConsensusParams: cmttypes.DefaultConsensusParams(),
		InitialHeight:   1,
		Validators:      vals,
		AppState:        appStateJSON,
	}
	if err = types.ExportGenesisFile(appGenesis, genFile); err != nil {
		return fmt.Errorf("Failed to export genesis file %v", err)
	}
	if err = config.WriteConfigFile(filepath.Join(appConfig.RootDir, "config", "config.toml"), appConfig); err != nil {
		return err
	}
	return displayInfo(printInfo{
		Moniker:    appConfig.Moniker,
		ChainID:    chainID,
		NodeID:     nodeID,
		Owner:      owner.Hex(),
		AppMessage: appGenesis.AppState,
	})
}
