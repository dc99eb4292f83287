package main

import (
	"math/big"
	"testing"

	daocrypto "github.com/calehh/collector-dao/crypto"
	"github.com/calehh/collector-dao/executor"
	"github.com/calehh/collector-dao/state"
	"github.com/calehh/collector-dao/tx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildProposeTx(t *testing.T) {
	nft := "0xbc4ca0eda7647a8ab7c2061c2e118a18a936f13d"
	args := &proposeArguments{
		Targets:      []string{"0x0000000000000000000000000000000000000001"},
		Values:       []string{"5"},
		Calldatas:    []string{"0x"},
		Description:  "buy and pay",
		BuyNft:       state.DefaultMarketplace.Hex() + ":" + nft + ":7:1000",
		Organization: state.DefaultVerifyingContract.Hex(),
	}
	ptx, err := buildProposeTx(args)
	require.NoError(t, err)
	require.Len(t, ptx.Targets, 2)
	assert.Equal(t, "5", ptx.Values[0].String())
	assert.Empty(t, ptx.Calldatas[0])
	assert.Equal(t, state.DefaultVerifyingContract, ptx.Targets[1])
	want, err := executor.PackBuyNftFromMarketplace(state.DefaultMarketplace, common.HexToAddress(nft), big.NewInt(7))
	require.NoError(t, err)
	assert.Equal(t, want, []byte(ptx.Calldatas[1]))
}

func TestBuildProposeTxErrors(t *testing.T) {
	tests := []struct {
		name string
		args proposeArguments
	}{
		{name: "empty", args: proposeArguments{}},
		{name: "length mismatch", args: proposeArguments{Targets: []string{"0x01"}, Values: []string{}, Calldatas: []string{"0x"}}},
		{name: "bad target", args: proposeArguments{Targets: []string{"bob"}, Values: []string{"1"}, Calldatas: []string{"0x"}}},
		{name: "bad value", args: proposeArguments{Targets: []string{"0x0000000000000000000000000000000000000001"}, Values: []string{"x"}, Calldatas: []string{"0x"}}},
		{name: "bad calldata", args: proposeArguments{Targets: []string{"0x0000000000000000000000000000000000000001"}, Values: []string{"1"}, Calldatas: []string{"zz"}}},
		{name: "bad buy-nft", args: proposeArguments{BuyNft: "a:b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildProposeTx(&tt.args)
			assert.Error(t, err)
		})
	}
}

func TestParseSupportAndListing(t *testing.T) {
	s, err := parseSupport("against")
	require.NoError(t, err)
	assert.Equal(t, uint8(0), s)
	s, err = parseSupport("2")
	require.NoError(t, err)
	assert.Equal(t, uint8(2), s)
	_, err = parseSupport("maybe")
	assert.Error(t, err)

	l, err := parseListing("0x01:0x02:3:4:0x05")
	require.NoError(t, err)
	assert.Equal(t, "3", l.NftId)
	_, err = parseListing("0x01:0x02")
	assert.Error(t, err)
}

func TestVersionString(t *testing.T) {
	gitCommit = ""
	assert.Equal(t, daoVersion, versionString())
	gitCommit = "0123456789abcdef"
	defer func() { gitCommit = "" }()
	assert.Equal(t, daoVersion+"+01234567", versionString())
}

func TestBuildVoteBySig(t *testing.T) {
	key, err := daocrypto.GenerateKey()
	require.NoError(t, err)
	domain := state.DefaultParams().Domain
	sigHex := func(id uint64, support uint8) string {
		sig, err := daocrypto.SignBallot(key.PrivateKey(), domain, id, support)
		require.NoError(t, err)
		b, err := sig.Bytes()
		require.NoError(t, err)
		return hexutil.Encode(b)
	}

	tp, body, err := buildVoteBySig(&voteBySigArguments{
		Proposals: []uint{3},
		Supports:  []string{"for"},
		Sigs:      []string{sigHex(3, 1)},
	})
	require.NoError(t, err)
	assert.Equal(t, tx.DAOTxTypeVoteBySig, tp)
	single := body.(*tx.VoteBySigTx)
	assert.Equal(t, uint64(3), single.Proposal)
	signer, err := daocrypto.RecoverBallotSigner(domain, 3, 1, daocrypto.Signature{V: single.V, R: single.R, S: single.S})
	require.NoError(t, err)
	assert.Equal(t, key.Address(), signer)

	tp, body, err = buildVoteBySig(&voteBySigArguments{
		Proposals: []uint{1, 2},
		Supports:  []string{"against", "abstain"},
		Sigs:      []string{sigHex(1, 0), sigHex(2, 2)},
	})
	require.NoError(t, err)
	assert.Equal(t, tx.DAOTxTypeVoteBySigBatch, tp)
	batch := body.(*tx.VoteBySigBatchTx)
	assert.Equal(t, []uint64{1, 2}, batch.Proposals)
	assert.Equal(t, []uint8{0, 2}, batch.Supports)
	assert.Len(t, batch.Vs, 2)

	_, _, err = buildVoteBySig(&voteBySigArguments{Proposals: []uint{1}, Supports: []string{"for"}})
	assert.Error(t, err)
	_, _, err = buildVoteBySig(&voteBySigArguments{Proposals: []uint{1}, Supports: []string{"for"}, Sigs: []string{"0x01"}})
	assert.Error(t, err)
}
