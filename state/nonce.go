package state

import (
	"fmt"

	daocrypto "github.com/calehh/collector-dao/crypto"
	"github.com/calehh/collector-dao/tx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

func (s *State) GetNonce(addr common.Address) (uint64, error) {
	if n, ok := s.nonces[addr]; ok {
		return n, nil
	}
	val, err := s.get(fmt.Sprintf(KeyNonce, addr[:]))
	if err != nil || val == nil {
		return 0, err
	}
	var n uint64
	if err = rlp.DecodeBytes(val, &n); err != nil {
		return 0, err
	}
	s.nonces[addr] = n
	return n, nil
}

func (s *State) IncNonce(addr common.Address) error {
	n, err := s.GetNonce(addr)
	if err != nil {
		return err
	}
	s.nonces[addr] = n + 1
	s.modNonces[addr] = struct{}{}
	return nil
}

// Verify checks the envelope signature and nonce of btx. With allowNonceGap a
// nonce ahead of the stored one passes, which is what the mempool needs.
func (s *State) Verify(btx *tx.DAOTx, allowNonceGap bool) (sender common.Address, err error) {
	nonce, err := s.GetNonce(btx.Sender)
	if err != nil {
		return
	}
	if !(nonce == btx.Nonce || (allowNonceGap && nonce < btx.Nonce)) {
		err = ErrTxNonceInvalid
		return
	}
	dat, err := btx.SigData([]byte(s.header.ChainId))
	if err != nil {
		return
	}
	signer, err := daocrypto.RecoverSigner(dat, btx.Sig)
	if err != nil || signer != btx.Sender {
		err = ErrTxSigInvalid
		return
	}
	return signer, nil
}
