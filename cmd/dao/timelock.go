package main

import (
	"github.com/calehh/collector-dao/tx"
	"github.com/spf13/cobra"
)

type proposalTxArguments struct {
	txFlags
	Proposal uint64
}

var queueArgs, executeArgs proposalTxArguments

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Queue a succeeded proposal in the timelock",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendTx(&queueArgs.txFlags, tx.DAOTxTypeQueue, &tx.QueueTx{Proposal: queueArgs.Proposal})
	},
}

var executeCmd = &cobra.Command{
	Use:   "execute",
	Short: "Execute a queued proposal once its eta has passed",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendTx(&executeArgs.txFlags, tx.DAOTxTypeExecute, &tx.ExecuteTx{Proposal: executeArgs.Proposal})
	},
}

func init() {
	queueArgs.register(queueCmd)
	queueCmd.Flags().Uint64VarP(&queueArgs.Proposal, "proposal", "p", 0, "proposal id")
	executeArgs.register(executeCmd)
	executeCmd.Flags().Uint64VarP(&executeArgs.Proposal, "proposal", "p", 0, "proposal id")
}
