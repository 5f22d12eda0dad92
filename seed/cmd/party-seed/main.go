// party-seed provisions dummy parties against a local party API and chain:
// it deploys two parties owned by the provider's first account and registers
// the next two accounts as guests of each, leaving the stack ready for
// end-to-end tests.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lmittmann/tint"

	"github.com/chainparty/seeder/seed"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := seed.LoadConfig()
	if err != nil {
		return err
	}

	var debug bool
	fs := flag.NewFlagSet("party-seed", flag.ContinueOnError)
	fs.StringVar(&cfg.APIEndpoint, "api-endpoint", cfg.APIEndpoint, "party API GraphQL endpoint")
	fs.StringVar(&cfg.RPCURL, "rpc-url", cfg.RPCURL, "Ethereum RPC URL")
	fs.Int64Var(&cfg.ChainID, "chain-id", cfg.ChainID, "chain id")
	fs.StringVar(&cfg.FactoryAddress, "factory-address", cfg.FactoryAddress, "party factory contract address")
	fs.StringVar(&cfg.TokenSecret, "token-secret", cfg.TokenSecret, "shared secret for bearer credentials")
	fs.Int64Var(&cfg.GasFeeCap, "gas-fee-cap", cfg.GasFeeCap, "EIP-1559 fee cap")
	fs.Int64Var(&cfg.GasTipCap, "gas-tip-cap", cfg.GasTipCap, "EIP-1559 tip cap")
	fs.IntVar(&cfg.TimeoutSeconds, "timeout-seconds", cfg.TimeoutSeconds, "timeout in seconds")
	fs.BoolVar(&debug, "debug", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	}))

	if !common.IsHexAddress(cfg.FactoryAddress) {
		return fmt.Errorf("invalid factory address: %q", cfg.FactoryAddress)
	}
	if cfg.TokenSecret == "" {
		return errors.New("token-secret is required")
	}
	factory := common.HexToAddress(cfg.FactoryAddress)

	backend, err := seed.NewRPCBackend(cfg.RPCURL, cfg.ChainID, big.NewInt(cfg.GasFeeCap), big.NewInt(cfg.GasTipCap))
	if err != nil {
		return err
	}
	defer backend.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.TimeoutSeconds)*time.Second)
	defer cancel()

	accounts, err := seed.NodeAccounts(ctx, backend)
	if err != nil {
		return err
	}
	if len(accounts) < 3 {
		return fmt.Errorf("need at least 3 provider accounts, have %d", len(accounts))
	}
	owner := accounts[0]
	guests := []seed.Account{accounts[1], accounts[2]}

	token := seed.TokenConfig{Secret: []byte(cfg.TokenSecret)}
	workflow := seed.NewWorkflow(cfg.APIEndpoint, backend, factory, token, log)

	for _, name := range []string{"Super duper", "Super duper 2"} {
		party, err := workflow.SeedParty(ctx, owner, seed.PartyMeta{Name: name}, seed.DefaultDeployParams())
		if err != nil {
			return fmt.Errorf("seed %q: %w", name, err)
		}
		if _, err := party.RegisterAll(ctx, guests); err != nil {
			return fmt.Errorf("rsvp %q: %w", name, err)
		}
	}

	log.Info("seeding parties complete")
	return nil
}
