package tx

import (
	"errors"
)

type DAOTxType uint8

const (
	DAOTxTypeUnknown        DAOTxType = 0
	DAOTxTypeContribute     DAOTxType = 1
	DAOTxTypePropose        DAOTxType = 2
	DAOTxTypeVote           DAOTxType = 3
	DAOTxTypeVoteBySig      DAOTxType = 4
	DAOTxTypeVoteBySigBatch DAOTxType = 5
	DAOTxTypeQueue          DAOTxType = 6
	DAOTxTypeExecute        DAOTxType = 7
)

var txTypeNames = map[DAOTxType]string{
	DAOTxTypeContribute:     "contribute",
	DAOTxTypePropose:        "propose",
	DAOTxTypeVote:           "vote",
	DAOTxTypeVoteBySig:      "vote_by_sig",
	DAOTxTypeVoteBySigBatch: "vote_by_sig_batch",
	DAOTxTypeQueue:          "queue",
	DAOTxTypeExecute:        "execute",
}

func (t DAOTxType) String() string {
	if name, ok := txTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

const (
	DAOTxVersion0 uint8 = 0
	DAOTxVersion1 uint8 = 1
)

var (
	ErrInvalidTx            = errors.New("invalid tx")
	ErrUnsupportedTxType    = errors.New("unsupported tx type")
	ErrUnmatchedTxType      = errors.New("unmatched tx type")
	ErrUnsupportedTxVersion = errors.New("unsupported tx version")
)
