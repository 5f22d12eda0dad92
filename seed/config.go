package seed

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the environment-backed configuration of a seeding run. Flags may
// layer on top of it; see cmd/party-seed.
type Config struct {
	APIEndpoint string `env:"API_ENDPOINT" envDefault:"http://localhost:3001/graphql"`
	RPCURL      string `env:"RPC_URL" envDefault:"http://localhost:8545"`
	ChainID     int64  `env:"CHAIN_ID" envDefault:"1337"`

	// Address of the already-deployed party factory.
	FactoryAddress string `env:"DEPLOYER_CONTRACT_ADDRESS"`

	// Shared secret the authentication service verifies credentials with.
	TokenSecret string `env:"TOKEN_SECRET"`

	GasFeeCap int64 `env:"GAS_FEE_CAP" envDefault:"2000000000"`
	GasTipCap int64 `env:"GAS_TIP_CAP" envDefault:"1000000000"`

	TimeoutSeconds int `env:"TIMEOUT_SECONDS" envDefault:"600"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
