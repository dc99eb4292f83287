package main

import (
	"context"
	"fmt"

	daocrypto "github.com/calehh/collector-dao/crypto"
	"github.com/calehh/collector-dao/tx"
	"github.com/calehh/collector-dao/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

func parseSupport(s string) (uint8, error) {
	switch s {
	case "against", "0":
		return uint8(types.VoteAgainst), nil
	case "for", "1":
		return uint8(types.VoteFor), nil
	case "abstain", "2":
		return uint8(types.VoteAbstain), nil
	}
	return 0, fmt.Errorf("invalid support %q, want for, against or abstain", s)
}

type voteArguments struct {
	txFlags
	Proposal uint64
	Support  string
	Reason   string
}

var voteArgs voteArguments

var voteCmd = &cobra.Command{
	Use:   "vote",
	Short: "Vote on an active proposal",
	RunE: func(cmd *cobra.Command, args []string) error {
		support, err := parseSupport(voteArgs.Support)
		if err != nil {
			return err
		}
		return sendTx(&voteArgs.txFlags, tx.DAOTxTypeVote, &tx.VoteTx{
			Proposal: voteArgs.Proposal,
			Support:  support,
			Reason:   voteArgs.Reason,
		})
	},
}

func init() {
	voteArgs.register(voteCmd)
	voteCmd.Flags().Uint64VarP(&voteArgs.Proposal, "proposal", "p", 0, "proposal id")
	voteCmd.Flags().StringVarP(&voteArgs.Support, "support", "s", "for", "for, against or abstain")
	voteCmd.Flags().StringVarP(&voteArgs.Reason, "reason", "r", "", "reason recorded with the vote")
}

type signBallotArguments struct {
	Url      string
	KeyPath  string
	Proposal uint64
	Support  string
}

var signBallotArgs signBallotArguments

var signBallotCmd = &cobra.Command{
	Use:   "sign-ballot",
	Short: "Sign a ballot offline for someone else to submit",
	Long: `Sign a typed data ballot against the organization's domain. The
signature can be submitted by any account with vote-by-sig.`,
	RunE: signBallotRun,
}

func init() {
	urlFlag(signBallotCmd, &signBallotArgs.Url)
	signBallotCmd.Flags().StringVarP(&signBallotArgs.KeyPath, "key", "k", "", "voter private key file")
	signBallotCmd.Flags().Uint64VarP(&signBallotArgs.Proposal, "proposal", "p", 0, "proposal id")
	signBallotCmd.Flags().StringVarP(&signBallotArgs.Support, "support", "s", "for", "for, against or abstain")
	_ = signBallotCmd.MarkFlagRequired("key")
}

func signBallotRun(cmd *cobra.Command, args []string) error {
	support, err := parseSupport(signBallotArgs.Support)
	if err != nil {
		return err
	}
	cli, err := newClient(signBallotArgs.Url)
	if err != nil {
		return err
	}
	t, err := queryTreasury(context.Background(), cli)
	if err != nil {
		return err
	}
	key := daocrypto.LoadKeyFile(signBallotArgs.KeyPath)
	sig, err := daocrypto.SignBallot(key.PrivateKey(), t.Params.Domain, signBallotArgs.Proposal, support)
	if err != nil {
		return err
	}
	b, err := sig.Bytes()
	if err != nil {
		return err
	}
	fmt.Printf("voter:%s\nproposal:%d\nsupport:%d\nsig:%s\n", key.Address().Hex(), signBallotArgs.Proposal, support, hexutil.Encode(b))
	return nil
}

type voteBySigArguments struct {
	txFlags
	Proposals []uint
	Supports  []string
	Sigs      []string
}

var voteBySigArgs voteBySigArguments

var voteBySigCmd = &cobra.Command{
	Use:   "vote-by-sig",
	Short: "Submit signed ballots",
	Long: `Submit one or more ballots made with sign-ballot. With more than one
--proposal the ballots go in a single batch that succeeds or fails as a whole.`,
	RunE: voteBySigRun,
}

func init() {
	voteBySigArgs.register(voteBySigCmd)
	voteBySigCmd.Flags().UintSliceVarP(&voteBySigArgs.Proposals, "proposal", "p", nil, "proposal id of each ballot")
	voteBySigCmd.Flags().StringSliceVarP(&voteBySigArgs.Supports, "support", "s", nil, "support of each ballot")
	voteBySigCmd.Flags().StringSliceVarP(&voteBySigArgs.Sigs, "sig", "", nil, "65 byte hex signature of each ballot")
}

// buildVoteBySig turns the ballot flags into a single or batch tx body.
func buildVoteBySig(args *voteBySigArguments) (tx.DAOTxType, any, error) {
	n := len(args.Proposals)
	if n == 0 || n != len(args.Supports) || n != len(args.Sigs) {
		return 0, nil, fmt.Errorf("%d proposals, %d supports, %d signatures", n, len(args.Supports), len(args.Sigs))
	}
	batch := &tx.VoteBySigBatchTx{}
	for i := 0; i < n; i++ {
		support, err := parseSupport(args.Supports[i])
		if err != nil {
			return 0, nil, err
		}
		b, err := hexutil.Decode(args.Sigs[i])
		if err != nil {
			return 0, nil, fmt.Errorf("sig %d: %w", i, err)
		}
		sig, err := daocrypto.SignatureFromBytes(b)
		if err != nil {
			return 0, nil, fmt.Errorf("sig %d: %w", i, err)
		}
		batch.Proposals = append(batch.Proposals, uint64(args.Proposals[i]))
		batch.Supports = append(batch.Supports, support)
		batch.Vs = append(batch.Vs, sig.V)
		batch.Rs = append(batch.Rs, sig.R)
		batch.Ss = append(batch.Ss, sig.S)
	}
	if n == 1 {
		return tx.DAOTxTypeVoteBySig, &tx.VoteBySigTx{
			Proposal: batch.Proposals[0],
			Support:  batch.Supports[0],
			V:        batch.Vs[0],
			R:        batch.Rs[0],
			S:        batch.Ss[0],
		}, nil
	}
	return tx.DAOTxTypeVoteBySigBatch, batch, nil
}

func voteBySigRun(cmd *cobra.Command, args []string) error {
	tp, body, err := buildVoteBySig(&voteBySigArgs)
	if err != nil {
		return err
	}
	return sendTx(&voteBySigArgs.txFlags, tp, body)
}
