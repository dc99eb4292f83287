package state

import (
	"errors"
	"math/big"

	daocrypto "github.com/calehh/collector-dao/crypto"
	"github.com/ethereum/go-ethereum/common"
)

const (
	Hour = uint64(3600)
	Day  = 24 * Hour

	DefaultVotingDelay   = Hour
	DefaultVotingPeriod  = 3 * Day
	DefaultTimelockDelay = 2 * Day
	DefaultGracePeriod   = 5 * Day

	DefaultOrganizationName = "CollectorDao"
	DefaultBallotChainId    = 1337
)

// DefaultMembershipThreshold is one whole unit, 1e18 base units.
var DefaultMembershipThreshold = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// DefaultVerifyingContract is the address the organization answers on.
var DefaultVerifyingContract = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

// DefaultMarketplace is the NFT marketplace proposals can buy from.
var DefaultMarketplace = common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512")

// Params are fixed for the lifetime of a chain. Durations are in seconds.
type Params struct {
	VotingDelay         uint64           `json:"voting_delay"`
	VotingPeriod        uint64           `json:"voting_period"`
	TimelockDelay       uint64           `json:"timelock_delay"`
	GracePeriod         uint64           `json:"grace_period"`
	MembershipThreshold *big.Int         `json:"membership_threshold"`
	Domain              daocrypto.Domain `json:"domain"`
	Marketplaces        []common.Address `json:"marketplaces"`
}

func DefaultParams() *Params {
	return &Params{
		VotingDelay:         DefaultVotingDelay,
		VotingPeriod:        DefaultVotingPeriod,
		TimelockDelay:       DefaultTimelockDelay,
		GracePeriod:         DefaultGracePeriod,
		MembershipThreshold: new(big.Int).Set(DefaultMembershipThreshold),
		Domain: daocrypto.Domain{
			Name:              DefaultOrganizationName,
			ChainId:           big.NewInt(DefaultBallotChainId),
			VerifyingContract: DefaultVerifyingContract,
		},
		Marketplaces: []common.Address{DefaultMarketplace},
	}
}

func (p *Params) Validate() error {
	if p.VotingDelay == 0 || p.VotingPeriod == 0 || p.TimelockDelay == 0 || p.GracePeriod == 0 {
		return errors.New("params: durations must be positive")
	}
	if p.MembershipThreshold == nil || p.MembershipThreshold.Sign() <= 0 {
		return errors.New("params: membership threshold must be positive")
	}
	return p.Domain.Validate()
}
