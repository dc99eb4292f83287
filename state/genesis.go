package state

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/calehh/collector-dao/types"
	"github.com/ethereum/go-ethereum/common"
)

// InitGenesis applies the params and the bootstrap contributions of the
// genesis app state. Contributions go through Contribute, so a contributor
// that reaches the threshold is a member from genesis time on.
func (s *State) InitGenesis(appState *types.AppState) (events []*types.EventContribution, err error) {
	if err = appState.Validate(); err != nil {
		return nil, err
	}
	params := DefaultParams()
	if len(appState.Params) != 0 {
		if err = json.Unmarshal(appState.Params, params); err != nil {
			return nil, fmt.Errorf("genesis params: %w", err)
		}
	}
	if err = s.SetParams(params); err != nil {
		return nil, err
	}
	for _, c := range appState.Contributions {
		amount, _ := new(big.Int).SetString(c.Amount, 10)
		event, err := s.Contribute(common.HexToAddress(c.Address), amount)
		if err != nil {
			return nil, fmt.Errorf("genesis contribution %s: %w", c.Address, err)
		}
		events = append(events, event)
	}
	return events, nil
}
