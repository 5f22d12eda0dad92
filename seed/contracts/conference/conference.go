// Package conference binds a deployed party contract: the read of the
// required deposit and the payable registration entry point.
package conference

import (
	"math/big"

	"github.com/lmittmann/w3"
)

const (
	name = "Conference"

	RegisterGasLimit uint64 = 120_000
)

var (
	funcDeposit = w3.MustNewFunc(
		"deposit()", "uint256",
	)
	funcRegister = w3.MustNewFunc(
		"register()", "",
	)
)

func Name() string { return name }

func EncodeDeposit() ([]byte, error) {
	return funcDeposit.EncodeArgs()
}

func DecodeDeposit(output []byte) (*big.Int, error) {
	var deposit big.Int
	if err := funcDeposit.DecodeReturns(output, &deposit); err != nil {
		return nil, err
	}
	return &deposit, nil
}

func EncodeRegister() ([]byte, error) {
	return funcRegister.EncodeArgs()
}
