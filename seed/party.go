package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/chainparty/seeder/seed/contracts/conference"
)

// Party is a handle to a deployed party contract. It is only ever
// constructed from a successfully decoded NewParty event, so Address is
// never a guessed or zero value, and RequiredDeposit is read back from the
// contract rather than trusted from configuration.
type Party struct {
	Address         common.Address
	RequiredDeposit *big.Int

	backend Backend
	log     *slog.Logger
}

// NewParty binds a deployed party contract and reads its required deposit.
func NewParty(ctx context.Context, backend Backend, address common.Address, log *slog.Logger) (*Party, error) {
	if log == nil {
		log = slog.Default()
	}
	calldata, err := conference.EncodeDeposit()
	if err != nil {
		return nil, fmt.Errorf("encode deposit call: %w", err)
	}
	output, err := backend.CallContract(ctx, address, calldata)
	if err != nil {
		return nil, fmt.Errorf("read deposit: %w", err)
	}
	deposit, err := conference.DecodeDeposit(output)
	if err != nil {
		return nil, fmt.Errorf("decode deposit: %w", err)
	}
	return &Party{
		Address:         address,
		RequiredDeposit: deposit,
		backend:         backend,
		log:             log,
	}, nil
}

// RsvpResult is one account's registration outcome. Results are independent
// across accounts.
type RsvpResult struct {
	Account common.Address
	TxHash  common.Hash
	Err     error
}

// Register submits a registration for one account, transferring exactly the
// contract's required deposit.
func (p *Party) Register(ctx context.Context, account Account) RsvpResult {
	result := RsvpResult{Account: account.Address()}

	calldata, err := conference.EncodeRegister()
	if err != nil {
		result.Err = fmt.Errorf("%w: encode register: %w", ErrRegistrationFailed, err)
		return result
	}

	party := p.Address
	txHash, err := account.SendTx(ctx, TxCall{
		To:    &party,
		Value: p.RequiredDeposit,
		Gas:   conference.RegisterGasLimit,
		Data:  calldata,
	})
	if err != nil {
		result.Err = fmt.Errorf("%w: %w", ErrRegistrationFailed, classifyTxError(err))
		return result
	}
	result.TxHash = txHash

	receipt, err := p.backend.WaitForReceipt(ctx, txHash)
	if err != nil {
		result.Err = fmt.Errorf("%w: wait receipt: %w", ErrRegistrationFailed, err)
		return result
	}
	if !receipt.Successful() {
		result.Err = fmt.Errorf("%w: %w: tx %s", ErrRegistrationFailed, ErrReverted, txHash.Hex())
		return result
	}

	p.log.Info("new rsvp", "account", account.Address().Hex(), "party", p.Address.Hex())
	return result
}

// RegisterAll registers every account concurrently. Results come back one
// per account in input order, each carrying its own outcome; the returned
// error joins every individual failure, so callers can fail fast on it or
// inspect the per-account results for partial success.
func (p *Party) RegisterAll(ctx context.Context, accounts []Account) ([]RsvpResult, error) {
	results := make([]RsvpResult, len(accounts))

	var g errgroup.Group
	for i, account := range accounts {
		g.Go(func() error {
			results[i] = p.Register(ctx, account)
			return results[i].Err
		})
	}
	// Wait's first-error return is discarded for the joined aggregate below.
	_ = g.Wait()

	errs := make([]error, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return results, errors.Join(errs...)
}
