package main

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/calehh/collector-dao/executor"
	"github.com/calehh/collector-dao/state"
	"github.com/calehh/collector-dao/tx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

type proposeArguments struct {
	txFlags
	Targets      []string
	Values       []string
	Calldatas    []string
	Description  string
	BuyNft       string
	Organization string
}

var proposeArgs proposeArguments

var proposeCmd = &cobra.Command{
	Use:   "propose",
	Short: "Create a proposal",
	Long: `Create a proposal from --target, --value and --calldata triples, given in
the same order. --buy-nft marketplace:nftContract:nftId:value adds an action
that makes the organization buy an NFT.`,
	RunE: proposeRun,
}

func init() {
	proposeArgs.register(proposeCmd)
	proposeCmd.Flags().StringSliceVarP(&proposeArgs.Targets, "target", "t", nil, "action target address")
	proposeCmd.Flags().StringSliceVarP(&proposeArgs.Values, "value", "v", nil, "action value in base units")
	proposeCmd.Flags().StringSliceVarP(&proposeArgs.Calldatas, "calldata", "c", nil, "action calldata, 0x for none")
	proposeCmd.Flags().StringVarP(&proposeArgs.Description, "description", "m", "", "proposal description")
	proposeCmd.Flags().StringVarP(&proposeArgs.BuyNft, "buy-nft", "", "", "marketplace:nftContract:nftId:value")
	proposeCmd.Flags().StringVarP(&proposeArgs.Organization, "organization", "", state.DefaultVerifyingContract.Hex(), "organization address targeted by --buy-nft")
}

func buildProposeTx(args *proposeArguments) (*tx.ProposeTx, error) {
	if len(args.Targets) != len(args.Values) || len(args.Targets) != len(args.Calldatas) {
		return nil, fmt.Errorf("%d targets, %d values, %d calldatas", len(args.Targets), len(args.Values), len(args.Calldatas))
	}
	ptx := &tx.ProposeTx{Description: args.Description}
	for i := range args.Targets {
		if !common.IsHexAddress(args.Targets[i]) {
			return nil, fmt.Errorf("invalid target %q", args.Targets[i])
		}
		value, ok := new(big.Int).SetString(args.Values[i], 10)
		if !ok {
			return nil, fmt.Errorf("invalid value %q", args.Values[i])
		}
		calldata, err := hexutil.Decode(args.Calldatas[i])
		if err != nil {
			return nil, fmt.Errorf("calldata %d: %w", i, err)
		}
		ptx.Targets = append(ptx.Targets, common.HexToAddress(args.Targets[i]))
		ptx.Values = append(ptx.Values, value)
		ptx.Calldatas = append(ptx.Calldatas, calldata)
	}
	if args.BuyNft != "" {
		parts := strings.Split(args.BuyNft, ":")
		if len(parts) != 4 || !common.IsHexAddress(parts[0]) || !common.IsHexAddress(parts[1]) {
			return nil, fmt.Errorf("invalid --buy-nft %q", args.BuyNft)
		}
		nftId, ok := new(big.Int).SetString(parts[2], 10)
		if !ok {
			return nil, fmt.Errorf("invalid nft id %q", parts[2])
		}
		value, ok := new(big.Int).SetString(parts[3], 10)
		if !ok {
			return nil, fmt.Errorf("invalid value %q", parts[3])
		}
		calldata, err := executor.PackBuyNftFromMarketplace(common.HexToAddress(parts[0]), common.HexToAddress(parts[1]), nftId)
		if err != nil {
			return nil, err
		}
		ptx.Targets = append(ptx.Targets, common.HexToAddress(args.Organization))
		ptx.Values = append(ptx.Values, value)
		ptx.Calldatas = append(ptx.Calldatas, calldata)
	}
	if len(ptx.Targets) == 0 {
		return nil, fmt.Errorf("a proposal needs at least one action")
	}
	return ptx, nil
}

func proposeRun(cmd *cobra.Command, args []string) error {
	ptx, err := buildProposeTx(&proposeArgs)
	if err != nil {
		return err
	}
	return sendTx(&proposeArgs.txFlags, tx.DAOTxTypePropose, ptx)
}
