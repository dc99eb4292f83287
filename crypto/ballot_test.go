package crypto

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDomain = Domain{
	Name:              "CollectorDao",
	ChainId:           big.NewInt(1337),
	VerifyingContract: common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"),
}

func manualBallotHash(d Domain, id uint64, support uint8) common.Hash {
	domainType := ethcrypto.Keccak256([]byte("EIP712Domain(string name,uint256 chainId,address verifyingContract)"))
	separator := ethcrypto.Keccak256(
		domainType,
		ethcrypto.Keccak256([]byte(d.Name)),
		math.U256Bytes(new(big.Int).Set(d.ChainId)),
		common.LeftPadBytes(d.VerifyingContract.Bytes(), 32),
	)
	ballotType := ethcrypto.Keccak256([]byte("Ballot(uint256 proposalId,uint8 support)"))
	structHash := ethcrypto.Keccak256(
		ballotType,
		math.U256Bytes(new(big.Int).SetUint64(id)),
		math.U256Bytes(big.NewInt(int64(support))),
	)
	return ethcrypto.Keccak256Hash([]byte{0x19, 0x01}, separator, structHash)
}

func TestBallotHashMatchesTypedDataEncoding(t *testing.T) {
	for _, tc := range []struct {
		id      uint64
		support uint8
	}{
		{1, 0}, {1, 1}, {7, 2}, {1 << 40, 1},
	} {
		h, err := BallotHash(testDomain, tc.id, tc.support)
		require.NoError(t, err)
		assert.Equal(t, manualBallotHash(testDomain, tc.id, tc.support), h)
	}
}

func TestBallotHashDomainSeparation(t *testing.T) {
	h1, err := BallotHash(testDomain, 1, 1)
	require.NoError(t, err)

	other := testDomain
	other.ChainId = big.NewInt(1)
	h2, err := BallotHash(other, 1, 1)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)

	other = testDomain
	other.VerifyingContract = common.HexToAddress("0x01")
	h3, err := BallotHash(other, 1, 1)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)

	h4, err := BallotHash(testDomain, 1, 0)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h4)
}

func TestSignAndRecoverBallot(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	sig, err := SignBallot(key.PrivateKey(), testDomain, 3, 1)
	require.NoError(t, err)
	assert.Contains(t, []uint8{27, 28}, sig.V)

	signer, err := RecoverBallotSigner(testDomain, 3, 1, sig)
	require.NoError(t, err)
	assert.Equal(t, key.Address(), signer)

	// a different choice recovers someone else
	other, err := RecoverBallotSigner(testDomain, 3, 0, sig)
	if err == nil {
		assert.NotEqual(t, key.Address(), other)
	}

	// raw recovery id is accepted as well
	raw := sig
	raw.V -= 27
	signer, err = RecoverBallotSigner(testDomain, 3, 1, raw)
	require.NoError(t, err)
	assert.Equal(t, key.Address(), signer)
}

func TestRecoverMalformedSignature(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	sig, err := SignBallot(key.PrivateKey(), testDomain, 1, 1)
	require.NoError(t, err)

	bad := sig
	bad.V = 30
	_, err = RecoverBallotSigner(testDomain, 1, 1, bad)
	assert.ErrorIs(t, err, ErrMalformedSignature)

	bad = sig
	bad.R = common.Hash{}
	_, err = RecoverBallotSigner(testDomain, 1, 1, bad)
	assert.ErrorIs(t, err, ErrMalformedSignature)

	_, err = SignatureFromBytes([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrMalformedSignature)
}

func TestKeySignRecover(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	path := t.TempDir() + "/key"
	require.NoError(t, key.Save(path))

	loaded := LoadKeyFile(path)
	assert.Equal(t, key.Address(), loaded.Address())

	msg := []byte(`{"type":1}`)
	sig, err := loaded.Sign(msg)
	require.NoError(t, err)
	addr, err := RecoverSigner(msg, sig)
	require.NoError(t, err)
	assert.Equal(t, key.Address(), addr)
}

func TestDomainValidate(t *testing.T) {
	require.NoError(t, testDomain.Validate())

	d := testDomain
	d.Name = ""
	assert.Error(t, d.Validate())

	d = testDomain
	d.ChainId = big.NewInt(0)
	assert.Error(t, d.Validate())

	d = testDomain
	d.VerifyingContract = common.Address{}
	assert.Error(t, d.Validate())
}
