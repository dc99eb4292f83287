package main

import (
	"github.com/calehh/collector-dao/config"
	"github.com/calehh/collector-dao/tx"
	"github.com/spf13/cobra"
)

type contributeArguments struct {
	txFlags
	Amount string
}

var contributeArgs contributeArguments

var contributeCmd = &cobra.Command{
	Use:   "contribute",
	Short: "Contribute to the treasury",
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := config.ParseEther(contributeArgs.Amount)
		if err != nil {
			return err
		}
		return sendTx(&contributeArgs.txFlags, tx.DAOTxTypeContribute, &tx.ContributeTx{Amount: amount})
	},
}

func init() {
	contributeArgs.register(contributeCmd)
	contributeCmd.Flags().StringVarP(&contributeArgs.Amount, "amount", "a", "1", "amount in whole units")
}
