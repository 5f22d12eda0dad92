package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/lmittmann/w3"
	"github.com/lmittmann/w3/module/eth"
	"github.com/lmittmann/w3/w3types"
)

// Backend is the slice of provider behaviour the workflow needs once a
// transaction hash is in hand: confirmation and read-only contract calls.
// Transaction submission itself lives on Account, because the submission
// path differs per account kind.
type Backend interface {
	WaitForReceipt(ctx context.Context, txHash common.Hash) (*Receipt, error)
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

// RPCBackend talks to an Ethereum JSON-RPC provider. The w3 client and the
// raw rpc client share one underlying connection.
type RPCBackend struct {
	client    *w3.Client
	rpc       *rpc.Client
	signer    types.Signer
	gasFeeCap *big.Int
	gasTipCap *big.Int
}

func NewRPCBackend(rpcURL string, chainID int64, gasFeeCap, gasTipCap *big.Int) (*RPCBackend, error) {
	rpcClient, err := rpc.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	return &RPCBackend{
		client:    w3.NewClient(rpcClient),
		rpc:       rpcClient,
		signer:    types.NewLondonSigner(big.NewInt(chainID)),
		gasFeeCap: gasFeeCap,
		gasTipCap: gasTipCap,
	}, nil
}

func (b *RPCBackend) Close() error {
	return b.client.Close()
}

func (b *RPCBackend) nonce(ctx context.Context, addr common.Address) (uint64, error) {
	var nonce uint64
	if err := b.client.CallCtx(ctx, eth.Nonce(addr, nil).Returns(&nonce)); err != nil {
		return 0, fmt.Errorf("get nonce: %w", err)
	}
	return nonce, nil
}

func (b *RPCBackend) sendRawTx(ctx context.Context, tx *types.Transaction) (common.Hash, error) {
	if err := b.client.CallCtx(ctx, eth.SendTx(tx).Returns(nil)); err != nil {
		return common.Hash{}, fmt.Errorf("send tx: %w", err)
	}
	return tx.Hash(), nil
}

// Accounts enumerates the provider's unlocked accounts.
func (b *RPCBackend) Accounts(ctx context.Context) ([]common.Address, error) {
	var addrs []common.Address
	if err := b.rpc.CallContext(ctx, &addrs, "eth_accounts"); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return addrs, nil
}

func (b *RPCBackend) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	var output []byte
	msg := &w3types.Message{To: &to, Input: data}
	if err := b.client.CallCtx(ctx, eth.Call(msg, nil, nil).Returns(&output)); err != nil {
		return nil, fmt.Errorf("call %s: %w", to.Hex(), err)
	}
	return output, nil
}

// WaitForReceipt blocks until the transaction is mined, polling the provider.
// The receipt is fetched over the raw RPC so that both wire shapes a
// provider may report are preserved (see Receipt).
func (b *RPCBackend) WaitForReceipt(ctx context.Context, txHash common.Hash) (*Receipt, error) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		var raw json.RawMessage
		err := b.rpc.CallContext(ctx, &raw, "eth_getTransactionReceipt", txHash)
		if err == nil && len(raw) > 0 && string(raw) != "null" {
			receipt := new(Receipt)
			if err := json.Unmarshal(raw, receipt); err != nil {
				return nil, err
			}
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
