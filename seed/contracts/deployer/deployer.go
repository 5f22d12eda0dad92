// Package deployer binds the on-chain party factory contract. The factory is
// already deployed; this package only carries its call/event surface.
package deployer

import (
	"math/big"

	"github.com/lmittmann/w3"
)

const (
	name = "Deployer"

	// Generous ceiling for a full party instantiation.
	GasLimit uint64 = 4_000_000
)

var (
	funcDeploy = w3.MustNewFunc(
		"deploy(string,uint256,uint256,uint256)", "",
	)
	EventNewParty = w3.MustNewEvent(
		"NewParty(address indexed deployedAddress, address indexed deployer)",
	)
)

// DeployArgs are the positional arguments of the factory's deploy method.
type DeployArgs struct {
	PendingPartyID   string
	Deposit          *big.Int
	ParticipantLimit *big.Int
	FeePercent       *big.Int
}

func Name() string { return name }

func EncodeDeploy(args DeployArgs) ([]byte, error) {
	return funcDeploy.EncodeArgs(args.PendingPartyID, args.Deposit, args.ParticipantLimit, args.FeePercent)
}
