package main

import (
	"context"
	"fmt"

	"github.com/calehh/collector-dao/app"
	"github.com/calehh/collector-dao/config"
	"github.com/calehh/collector-dao/state"
	"github.com/calehh/collector-dao/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

type proposalArguments struct {
	Url      string
	Proposal uint64
	Voter    string
}

var proposalArgs proposalArguments

var proposalCmd = &cobra.Command{
	Use:   "proposal",
	Short: "Show a proposal with its tally and state",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := newClient(proposalArgs.Url)
		if err != nil {
			return err
		}
		ctx := context.Background()
		if proposalArgs.Voter != "" {
			if !common.IsHexAddress(proposalArgs.Voter) {
				return fmt.Errorf("invalid voter %q", proposalArgs.Voter)
			}
			var r types.Receipt
			dat := append(app.EncodeId(proposalArgs.Proposal), common.HexToAddress(proposalArgs.Voter).Bytes()...)
			if err = query(ctx, cli, "/receipts/", dat, &r); err != nil {
				return err
			}
			return printJSON(r)
		}
		var v state.ProposalView
		if err = query(ctx, cli, "/proposals/", app.EncodeId(proposalArgs.Proposal), &v); err != nil {
			return err
		}
		return printJSON(struct {
			state.ProposalView
			StateName string `json:"state_name"`
		}{v, v.State.String()})
	},
}

type treasuryArguments struct {
	Url string
}

var treasuryArgs treasuryArguments

var treasuryCmd = &cobra.Command{
	Use:   "treasury",
	Short: "Show the treasury, member count and chain parameters",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := newClient(treasuryArgs.Url)
		if err != nil {
			return err
		}
		t, err := queryTreasury(context.Background(), cli)
		if err != nil {
			return err
		}
		return printJSON(struct {
			*app.TreasuryResult
			TreasuryUnits string `json:"treasury_units"`
		}{t, config.FormatEther(t.Treasury)})
	},
}

func init() {
	urlFlag(proposalCmd, &proposalArgs.Url)
	proposalCmd.Flags().Uint64VarP(&proposalArgs.Proposal, "proposal", "p", 0, "proposal id")
	proposalCmd.Flags().StringVarP(&proposalArgs.Voter, "voter", "", "", "show this voter's receipt instead")
	urlFlag(treasuryCmd, &treasuryArgs.Url)
}
