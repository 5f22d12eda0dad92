// Package seed implements the authenticated on-chain party provisioning
// workflow: challenge-response login against the party API, creation of the
// off-chain pending party record, deployment of the party contract through
// the on-chain factory, recovery of the deployed address from the receipt
// logs, and batched participant registration.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
)

// Workflow runs the provisioning sequence for one party at a time. Each
// Workflow owns its API client and therefore its bearer credential, so
// several workflows may run concurrently in one process without interfering.
//
// Stages run strictly in order and fail fast: no stage retries, and a
// failure aborts the remainder of the run with the cause attached.
type Workflow struct {
	auth     *Authenticator
	api      *APIClient
	deployer *Deployer
	backend  Backend
	log      *slog.Logger
}

func NewWorkflow(endpoint string, backend Backend, factory common.Address, token TokenConfig, log *slog.Logger) *Workflow {
	if log == nil {
		log = slog.Default()
	}
	return &Workflow{
		auth:     NewAuthenticator(endpoint, token, log),
		api:      NewAPIClient(endpoint, log),
		deployer: NewDeployer(backend, factory, log),
		backend:  backend,
		log:      log,
	}
}

// SeedParty provisions one party owned by owner: authenticate, create the
// pending party record, make sure the owner has an admin profile, deploy the
// contract, recover its address from the receipt and bind a handle to it.
func (w *Workflow) SeedParty(ctx context.Context, owner Account, meta PartyMeta, params DeployParams) (*Party, error) {
	meta = meta.WithDefaults()

	cred, err := w.auth.Authenticate(ctx, owner)
	if err != nil {
		return nil, err
	}
	w.api.SetCredential(cred)

	pendingID, err := w.api.CreatePendingParty(ctx, meta)
	if err != nil {
		return nil, err
	}
	w.log.Info("created pending party", "id", pendingID, "name", meta.Name)

	if _, err := w.api.EnsureAdminProfile(ctx, owner.Address()); err != nil {
		return nil, err
	}

	receipt, err := w.deployer.Deploy(ctx, owner, pendingID, params)
	if err != nil {
		return nil, err
	}

	address, err := ExtractPartyAddress(receipt)
	if err != nil {
		return nil, err
	}
	w.log.Info("deployed new party", "address", address.Hex(), "name", meta.Name)

	party, err := NewParty(ctx, w.backend, address, w.log)
	if err != nil {
		return nil, fmt.Errorf("bind party %s: %w", address.Hex(), err)
	}
	return party, nil
}
