package crypto

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const BallotPrimaryType = "Ballot"

var (
	ErrMalformedSignature = errors.New("malformed signature")
	ErrZeroSigner         = errors.New("signature recovers to zero address")
)

var ballotTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	BallotPrimaryType: {
		{Name: "proposalId", Type: "uint256"},
		{Name: "support", Type: "uint8"},
	},
}

// Domain separates ballots of one organization from every other signed message.
type Domain struct {
	Name              string         `json:"name"`
	ChainId           *big.Int       `json:"chain_id"`
	VerifyingContract common.Address `json:"verifying_contract"`
}

func (d Domain) Validate() error {
	if d.Name == "" {
		return errors.New("domain name is empty")
	}
	if d.ChainId == nil || d.ChainId.Sign() <= 0 {
		return errors.New("domain chain id must be positive")
	}
	if d.VerifyingContract == (common.Address{}) {
		return errors.New("domain verifying contract is zero")
	}
	return nil
}

// Signature is a recoverable secp256k1 signature split the way wallets hand it out.
// V is 27 or 28; 0 and 1 are accepted as well.
type Signature struct {
	V uint8       `json:"v"`
	R common.Hash `json:"r"`
	S common.Hash `json:"s"`
}

func (sig Signature) Bytes() ([]byte, error) {
	v := sig.V
	if v >= 27 {
		v -= 27
	}
	if v > 1 {
		return nil, fmt.Errorf("%w: v=%d", ErrMalformedSignature, sig.V)
	}
	if !ethcrypto.ValidateSignatureValues(v, sig.R.Big(), sig.S.Big(), true) {
		return nil, ErrMalformedSignature
	}
	b := make([]byte, ethcrypto.SignatureLength)
	copy(b[:32], sig.R[:])
	copy(b[32:64], sig.S[:])
	b[64] = v
	return b, nil
}

func SignatureFromBytes(b []byte) (sig Signature, err error) {
	if len(b) != ethcrypto.SignatureLength {
		return sig, ErrMalformedSignature
	}
	copy(sig.R[:], b[:32])
	copy(sig.S[:], b[32:64])
	sig.V = b[64]
	if sig.V < 27 {
		sig.V += 27
	}
	return sig, nil
}

func BallotTypedData(d Domain, proposalId uint64, support uint8) apitypes.TypedData {
	chainId := new(big.Int)
	if d.ChainId != nil {
		chainId.Set(d.ChainId)
	}
	return apitypes.TypedData{
		Types:       ballotTypes,
		PrimaryType: BallotPrimaryType,
		Domain: apitypes.TypedDataDomain{
			Name:              d.Name,
			ChainId:           (*math.HexOrDecimal256)(chainId),
			VerifyingContract: d.VerifyingContract.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"proposalId": (*math.HexOrDecimal256)(new(big.Int).SetUint64(proposalId)),
			"support":    (*math.HexOrDecimal256)(big.NewInt(int64(support))),
		},
	}
}

// BallotHash is the digest a wallet signs for the ballot (proposalId, support).
func BallotHash(d Domain, proposalId uint64, support uint8) (common.Hash, error) {
	hash, _, err := apitypes.TypedDataAndHash(BallotTypedData(d, proposalId, support))
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(hash), nil
}

func SignBallot(key *ecdsa.PrivateKey, d Domain, proposalId uint64, support uint8) (sig Signature, err error) {
	hash, err := BallotHash(d, proposalId, support)
	if err != nil {
		return
	}
	b, err := ethcrypto.Sign(hash[:], key)
	if err != nil {
		return
	}
	return SignatureFromBytes(b)
}

func RecoverBallotSigner(d Domain, proposalId uint64, support uint8, sig Signature) (common.Address, error) {
	hash, err := BallotHash(d, proposalId, support)
	if err != nil {
		return common.Address{}, err
	}
	return Recover(hash[:], sig)
}

// Recover returns the address that produced sig over the 32 byte digest.
func Recover(digest []byte, sig Signature) (common.Address, error) {
	b, err := sig.Bytes()
	if err != nil {
		return common.Address{}, err
	}
	pub, err := ethcrypto.SigToPub(digest, b)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	addr := ethcrypto.PubkeyToAddress(*pub)
	if addr == (common.Address{}) {
		return common.Address{}, ErrZeroSigner
	}
	return addr, nil
}
