package crypto

import (
	"crypto/ecdsa"
	"fmt"

	cmtos "github.com/cometbft/cometbft/libs/os"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Key is a member's secp256k1 account key.
type Key struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

func NewKey(privateKey *ecdsa.PrivateKey) *Key {
	return &Key{
		privateKey: privateKey,
		address:    ethcrypto.PubkeyToAddress(privateKey.PublicKey),
	}
}

func GenerateKey() (*Key, error) {
	pk, err := ethcrypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return NewKey(pk), nil
}

// LoadKeyFile reads a hex encoded private key, exiting the process on failure.
func LoadKeyFile(keyFilePath string) *Key {
	pk, err := ethcrypto.LoadECDSA(keyFilePath)
	if err != nil {
		cmtos.Exit(fmt.Sprintf("Error reading key from %v: %v\n", keyFilePath, err))
	}
	return NewKey(pk)
}

func (k *Key) Save(keyFilePath string) error {
	return ethcrypto.SaveECDSA(keyFilePath, k.privateKey)
}

func (k *Key) PrivateKey() *ecdsa.PrivateKey {
	return k.privateKey
}

func (k *Key) Address() common.Address {
	return k.address
}

// Sign signs keccak256(data).
func (k *Key) Sign(data []byte) ([]byte, error) {
	return ethcrypto.Sign(ethcrypto.Keccak256(data), k.privateKey)
}

// RecoverSigner is the counterpart of Sign.
func RecoverSigner(data, sig []byte) (common.Address, error) {
	s, err := SignatureFromBytes(sig)
	if err != nil {
		return common.Address{}, err
	}
	return Recover(ethcrypto.Keccak256(data), s)
}
