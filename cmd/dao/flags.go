package main

import (
	"os"

	"github.com/calehh/collector-dao/config"
	"github.com/spf13/cobra"
)

const defaultUrl = "http://127.0.0.1:26657"

func urlFlag(cmd *cobra.Command, url *string) {
	cmd.Flags().StringVarP(url, "url", "u", defaultUrl, "dao node rpc url")
}

// txFlags are shared by every command that sends a transaction.
type txFlags struct {
	Url     string
	KeyPath string
	Nonce   int64
	NoSend  bool
}

func (f *txFlags) register(cmd *cobra.Command) {
	urlFlag(cmd, &f.Url)
	cmd.Flags().StringVarP(&f.KeyPath, "key", "k", config.OwnerKeyPath(os.ExpandEnv(config.DefaultHomeDir)), "account private key file")
	cmd.Flags().Int64VarP(&f.Nonce, "nonce", "n", -1, "account nonce, queried from the node when negative")
	cmd.Flags().BoolVarP(&f.NoSend, "nosend", "", false, "print the signed transaction instead of sending it")
}
