package main

import (
	"context"
	"fmt"

	"github.com/calehh/collector-dao/config"
	daocrypto "github.com/calehh/collector-dao/crypto"
	"github.com/calehh/collector-dao/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

type accountArguments struct {
	Url     string
	Address string
	KeyPath string
}

var accountArgs accountArguments

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show the membership record and nonce of an account",
	RunE:  accountRun,
}

func init() {
	urlFlag(accountCmd, &accountArgs.Url)
	accountCmd.Flags().StringVarP(&accountArgs.Address, "address", "a", "", "account address, defaults to the address of --key")
	accountCmd.Flags().StringVarP(&accountArgs.KeyPath, "key", "k", "", "account private key file")
	newKeyCmd.Flags().StringVarP(&newKeyArgs.KeyPath, "key", "k", "", "file to write the new private key to")
	_ = newKeyCmd.MarkFlagRequired("key")
	accountCmd.AddCommand(newKeyCmd)
}

func accountRun(cmd *cobra.Command, args []string) error {
	var addr common.Address
	switch {
	case accountArgs.Address != "":
		if !common.IsHexAddress(accountArgs.Address) {
			return fmt.Errorf("invalid address %q", accountArgs.Address)
		}
		addr = common.HexToAddress(accountArgs.Address)
	case accountArgs.KeyPath != "":
		addr = daocrypto.LoadKeyFile(accountArgs.KeyPath).Address()
	default:
		return fmt.Errorf("one of --address or --key is required")
	}
	cli, err := newClient(accountArgs.Url)
	if err != nil {
		return err
	}
	ctx := context.Background()
	var m types.Member
	if err = query(ctx, cli, "/members/", addr.Bytes(), &m); err != nil {
		return err
	}
	nonce, err := queryNonce(ctx, cli, addr)
	if err != nil {
		return err
	}
	contributed := "0"
	if m.Contributed != nil {
		contributed = config.FormatEther(m.Contributed)
	}
	fmt.Printf("address:%v member:%v since:%v contributed:%v nonce:%v\n",
		addr.Hex(), m.IsMember, m.MemberSince, contributed, nonce)
	return nil
}

type newKeyArguments struct {
	KeyPath string
}

var newKeyArgs newKeyArguments

var newKeyCmd = &cobra.Command{
	Use:   "new",
	Short: "Generate a new account key",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := daocrypto.GenerateKey()
		if err != nil {
			return err
		}
		if err = key.Save(newKeyArgs.KeyPath); err != nil {
			return err
		}
		fmt.Printf("address:%s\n", key.Address().Hex())
		return nil
	},
}
