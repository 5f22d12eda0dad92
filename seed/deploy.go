package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/chainparty/seeder/seed/contracts/deployer"
)

// DeployParams are the economic parameters of a new party. The ABI encoding
// of the on-chain call renders each numeric field as a fixed-width word.
type DeployParams struct {
	DepositWei       *big.Int
	ParticipantLimit int64
	FeePercent       int64
}

// DefaultDeployParams is the stock seeding economy: 0.02 ETH deposit, 100
// participants, 1% fee.
func DefaultDeployParams() DeployParams {
	return DeployParams{
		DepositWei:       big.NewInt(20_000_000_000_000_000),
		ParticipantLimit: 100,
		FeePercent:       1,
	}
}

// Deployer submits party deployments against the on-chain factory and waits
// for them to be mined.
type Deployer struct {
	backend Backend
	factory common.Address
	log     *slog.Logger
}

func NewDeployer(backend Backend, factory common.Address, log *slog.Logger) *Deployer {
	if log == nil {
		log = slog.Default()
	}
	return &Deployer{backend: backend, factory: factory, log: log}
}

// Deploy instantiates a new party contract for the pending party id, paid
// for by owner. It blocks until the transaction is mined. Deployments are
// not idempotent, so nothing here retries: a resubmission would risk a
// duplicate on-chain party.
func (d *Deployer) Deploy(ctx context.Context, owner Account, pendingID string, params DeployParams) (*Receipt, error) {
	calldata, err := deployer.EncodeDeploy(deployer.DeployArgs{
		PendingPartyID:   pendingID,
		Deposit:          params.DepositWei,
		ParticipantLimit: big.NewInt(params.ParticipantLimit),
		FeePercent:       big.NewInt(params.FeePercent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode deploy: %w", ErrDeploymentFailed, err)
	}

	factory := d.factory
	txHash, err := owner.SendTx(ctx, TxCall{
		To:   &factory,
		Gas:  deployer.GasLimit,
		Data: calldata,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeploymentFailed, classifyTxError(err))
	}
	d.log.Debug("deployment submitted", "tx", txHash.Hex(), "pending_id", pendingID)

	receipt, err := d.backend.WaitForReceipt(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("%w: wait receipt: %w", ErrDeploymentFailed, err)
	}
	if !receipt.Successful() {
		return nil, fmt.Errorf("%w: %w: tx %s", ErrDeploymentFailed, ErrReverted, txHash.Hex())
	}
	return receipt, nil
}
