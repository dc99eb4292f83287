package main

import (
	"fmt"
	"os"
)

func main() {
	nodeCmd.AddCommand(accountCmd)
	nodeCmd.AddCommand(initCmd)
	nodeCmd.AddCommand(versionCmd)
	nodeCmd.AddCommand(contributeCmd)
	nodeCmd.AddCommand(proposeCmd)
	nodeCmd.AddCommand(voteCmd)
	nodeCmd.AddCommand(signBallotCmd)
	nodeCmd.AddCommand(voteBySigCmd)
	nodeCmd.AddCommand(queueCmd)
	nodeCmd.AddCommand(executeCmd)
	nodeCmd.AddCommand(proposalCmd)
	nodeCmd.AddCommand(treasuryCmd)
	if err := nodeCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
