package seed

import (
	"errors"
	"fmt"
	"strings"
)

// Stage failures. Every stage wraps its cause; nothing is retried and
// nothing is swallowed.
var (
	ErrSigningUnavailable     = errors.New("account cannot sign: not unlocked on provider")
	ErrChallengeRequestFailed = errors.New("login challenge request failed")
	ErrAuthenticationFailed   = errors.New("authentication failed")
	ErrPartyCreationFailed    = errors.New("pending party creation failed")
	ErrProfileOperationFailed = errors.New("profile operation failed")
	ErrDeploymentFailed       = errors.New("party deployment failed")
	ErrPartyAddressNotFound   = errors.New("NewParty event not found in receipt logs")
	ErrRegistrationFailed     = errors.New("registration failed")
	ErrCredentialExpired      = errors.New("bearer credential expired")
)

// Deployment sub-causes, wrapped under ErrDeploymentFailed.
var (
	ErrInsufficientFunds = errors.New("insufficient funds for deployment")
	ErrOutOfGas          = errors.New("deployment ran out of gas")
	ErrReverted          = errors.New("deployment reverted by contract")
)

// classifyTxError maps a provider error onto a deployment sub-cause.
// Node implementations disagree on exact strings, so matching is loose;
// unrecognized errors pass through as plain transport failures.
func classifyTxError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "insufficient funds"):
		return fmt.Errorf("%w: %w", ErrInsufficientFunds, err)
	case strings.Contains(msg, "out of gas"), strings.Contains(msg, "intrinsic gas too low"):
		return fmt.Errorf("%w: %w", ErrOutOfGas, err)
	case strings.Contains(msg, "revert"), strings.Contains(msg, "execution reverted"):
		return fmt.Errorf("%w: %w", ErrReverted, err)
	default:
		return err
	}
}
