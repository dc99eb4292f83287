package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/calehh/collector-dao/app"
	daocrypto "github.com/calehh/collector-dao/crypto"
	"github.com/calehh/collector-dao/tx"
	"github.com/cometbft/cometbft/rpc/client/http"
	"github.com/ethereum/go-ethereum/common"
)

func newClient(url string) (*http.HTTP, error) {
	cli, err := http.New(url, "/websocket")
	if err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}
	return cli, nil
}

func query(ctx context.Context, cli *http.HTTP, path string, data []byte, v any) error {
	res, err := cli.ABCIQuery(ctx, path, data)
	if err != nil {
		return fmt.Errorf("query %s: %w", path, err)
	}
	if res.Response.Code != 0 {
		if res.Response.Log != "" {
			return fmt.Errorf("query %s: %s", path, res.Response.Log)
		}
		return fmt.Errorf("query %s: response code %d", path, res.Response.Code)
	}
	return json.Unmarshal(res.Response.Value, v)
}

func queryNonce(ctx context.Context, cli *http.HTTP, addr common.Address) (uint64, error) {
	var n app.NonceResult
	if err := query(ctx, cli, "/nonces/", addr.Bytes(), &n); err != nil {
		return 0, err
	}
	return n.Nonce, nil
}

func queryTreasury(ctx context.Context, cli *http.HTTP) (*app.TreasuryResult, error) {
	var t app.TreasuryResult
	if err := query(ctx, cli, "/treasury/", nil, &t); err != nil {
		return nil, err
	}
	if t.Params == nil {
		return nil, errors.New("node returned no params")
	}
	return &t, nil
}

// sendTx signs body with the key in f and broadcasts it.
func sendTx(f *txFlags, tp tx.DAOTxType, body any) error {
	cli, err := newClient(f.Url)
	if err != nil {
		return err
	}
	ctx := context.Background()
	gres, err := cli.Genesis(ctx)
	if err != nil {
		return fmt.Errorf("get chain genesis: %w", err)
	}
	chainId := gres.Genesis.ChainID
	key := daocrypto.LoadKeyFile(f.KeyPath)

	var nonce uint64
	if f.Nonce < 0 {
		if nonce, err = queryNonce(ctx, cli, key.Address()); err != nil {
			return err
		}
	} else {
		nonce = uint64(f.Nonce)
	}
	btx, err := tx.NewSignedTx(key, chainId, tp, nonce, body)
	if err != nil {
		return fmt.Errorf("sign tx: %w", err)
	}
	dat, err := tx.MarshalDAOTx(btx)
	if err != nil {
		return err
	}
	if f.NoSend {
		fmt.Println(string(dat))
		return nil
	}
	res, err := cli.BroadcastTxSync(ctx, dat)
	if err != nil {
		return fmt.Errorf("broadcast tx: %w", err)
	}
	out, _ := json.Marshal(res)
	fmt.Println(string(out))
	if res.Code != 0 {
		return errors.New(res.Log)
	}
	return nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
