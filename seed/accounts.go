package seed

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
)

// TxCall is one state-changing contract call. A nil To would be a contract
// creation; this workflow only ever calls existing contracts.
type TxCall struct {
	To    *common.Address
	Value *big.Int
	Gas   uint64
	Data  []byte
}

// Account is an address plus the ability to sign messages and submit
// transactions from it. Key material is never held by the workflow itself:
// either the provider keeps it (NodeAccount) or the caller supplies a key it
// already owns (KeyAccount).
type Account interface {
	Address() common.Address
	SignMessage(ctx context.Context, msg []byte) ([]byte, error)
	SendTx(ctx context.Context, call TxCall) (common.Hash, error)
}

// NodeAccount is a provider-held account. Signing and submission go through
// eth_sign / eth_sendTransaction and require the account to be unlocked on
// the node.
type NodeAccount struct {
	rpc  *rpc.Client
	addr common.Address
}

func NewNodeAccount(client *rpc.Client, addr common.Address) *NodeAccount {
	return &NodeAccount{rpc: client, addr: addr}
}

// NodeAccounts wraps every account the provider exposes, in provider order.
func NodeAccounts(ctx context.Context, b *RPCBackend) ([]*NodeAccount, error) {
	addrs, err := b.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*NodeAccount, len(addrs))
	for i, addr := range addrs {
		out[i] = NewNodeAccount(b.rpc, addr)
	}
	return out, nil
}

func (a *NodeAccount) Address() common.Address { return a.addr }

func (a *NodeAccount) SignMessage(ctx context.Context, msg []byte) ([]byte, error) {
	var sig hexutil.Bytes
	if err := a.rpc.CallContext(ctx, &sig, "eth_sign", a.addr, hexutil.Bytes(msg)); err != nil {
		if isLockedAccountError(err) {
			return nil, fmt.Errorf("%w: %s", ErrSigningUnavailable, a.addr.Hex())
		}
		return nil, fmt.Errorf("eth_sign: %w", err)
	}
	return sig, nil
}

func (a *NodeAccount) SendTx(ctx context.Context, call TxCall) (common.Hash, error) {
	arg := map[string]any{
		"from": a.addr,
		"gas":  hexutil.Uint64(call.Gas),
		"data": hexutil.Bytes(call.Data),
	}
	if call.To != nil {
		arg["to"] = call.To
	}
	if call.Value != nil {
		arg["value"] = (*hexutil.Big)(call.Value)
	}
	var txHash common.Hash
	if err := a.rpc.CallContext(ctx, &txHash, "eth_sendTransaction", arg); err != nil {
		if isLockedAccountError(err) {
			return common.Hash{}, fmt.Errorf("%w: %s", ErrSigningUnavailable, a.addr.Hex())
		}
		return common.Hash{}, fmt.Errorf("send tx: %w", err)
	}
	return txHash, nil
}

func isLockedAccountError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "locked") ||
		strings.Contains(msg, "unknown account") ||
		strings.Contains(msg, "no key for given address")
}

// KeyAccount signs locally with an ECDSA key and submits raw EIP-1559
// transactions through the backend.
type KeyAccount struct {
	backend *RPCBackend
	key     *ecdsa.PrivateKey
	addr    common.Address
}

func NewKeyAccount(backend *RPCBackend, key *ecdsa.PrivateKey) *KeyAccount {
	return &KeyAccount{
		backend: backend,
		key:     key,
		addr:    crypto.PubkeyToAddress(key.PublicKey),
	}
}

func (a *KeyAccount) Address() common.Address { return a.addr }

// SignMessage produces an EIP-191 personal-message signature in the same
// 65-byte V=27/28 form eth_sign returns.
func (a *KeyAccount) SignMessage(_ context.Context, msg []byte) ([]byte, error) {
	sig, err := crypto.Sign(accounts.TextHash(msg), a.key)
	if err != nil {
		return nil, fmt.Errorf("sign message: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

func (a *KeyAccount) SendTx(ctx context.Context, call TxCall) (common.Hash, error) {
	nonce, err := a.backend.nonce(ctx, a.addr)
	if err != nil {
		return common.Hash{}, err
	}

	// EIP-1559 only
	tx := types.NewTx(&types.DynamicFeeTx{
		Nonce:     nonce,
		To:        call.To,
		Value:     call.Value,
		GasFeeCap: a.backend.gasFeeCap,
		GasTipCap: a.backend.gasTipCap,
		Gas:       call.Gas,
		Data:      call.Data,
	})
	signedTx, err := types.SignTx(tx, a.backend.signer, a.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign tx: %w", err)
	}
	return a.backend.sendRawTx(ctx, signedTx)
}

// ParsePrivateKey decodes a hex-encoded private key, with or without the 0x
// prefix.
func ParsePrivateKey(v string) (*ecdsa.PrivateKey, error) {
	v = strings.TrimPrefix(strings.TrimSpace(v), "0x")
	key, err := crypto.HexToECDSA(v)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return key, nil
}
