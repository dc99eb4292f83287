package main

import (
	"fmt"
	"runtime"

	"github.com/calehh/collector-dao/tx"
	"github.com/cometbft/cometbft/version"
	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.gitCommit=...".
var gitCommit string

const daoVersion = "0.1.0"

func versionString() string {
	if len(gitCommit) >= 8 {
		return daoVersion + "+" + gitCommit[:8]
	}
	return daoVersion
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the dao node version and the protocol versions it speaks",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("collector-dao %s\n", versionString())
		fmt.Printf("tx envelope  v%d\n", tx.DAOTxVersion1)
		fmt.Printf("cometbft     %s (abci %s)\n", version.TMCoreSemVer, version.ABCISemVer)
		fmt.Printf("go           %s\n", runtime.Version())
	},
}
