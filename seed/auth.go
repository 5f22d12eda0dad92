package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/golang-jwt/jwt/v5"
	"github.com/machinebox/graphql"
)

// Credential is the encoded bearer token presented on authenticated API
// calls. It is workflow-scoped: created once per run, never persisted or
// refreshed. The server is the sole verifier.
type Credential string

// TokenConfig is the secret/algorithm pair the authentication service
// expects credentials to be signed with. It belongs to service
// configuration, not to this package.
type TokenConfig struct {
	Secret    []byte
	Algorithm jwt.SigningMethod
}

func (c TokenConfig) method() jwt.SigningMethod {
	if c.Algorithm != nil {
		return c.Algorithm
	}
	return jwt.SigningMethodHS256
}

const challengeMutation = `
  mutation createLoginChallenge($address: String!) {
    createLoginChallenge(address: $address) {
      str
    }
  }
`

// Authenticator performs the challenge-response login handshake: request a
// single-use challenge for an address, sign it with the account, and encode
// the address/signature pair as a bearer credential.
type Authenticator struct {
	gql   *graphql.Client
	token TokenConfig
	log   *slog.Logger
}

func NewAuthenticator(endpoint string, token TokenConfig, log *slog.Logger) *Authenticator {
	if log == nil {
		log = slog.Default()
	}
	return &Authenticator{
		gql:   graphql.NewClient(endpoint),
		token: token,
		log:   log,
	}
}

// RequestChallenge asks the API for a fresh login challenge scoped to the
// address. The challenge is single-use and consumed immediately by signing.
func (a *Authenticator) RequestChallenge(ctx context.Context, address common.Address) (string, error) {
	req := graphql.NewRequest(challengeMutation)
	req.Var("address", address.Hex())

	var resp struct {
		CreateLoginChallenge struct {
			Str string `json:"str"`
		} `json:"createLoginChallenge"`
	}
	if err := a.gql.Run(ctx, req, &resp); err != nil {
		return "", fmt.Errorf("%w: %w", ErrChallengeRequestFailed, err)
	}
	return resp.CreateLoginChallenge.Str, nil
}

// Authenticate runs the full handshake for an account. The resulting
// credential embeds the account's address and its signature over the
// server-chosen challenge, which is what proves key ownership: only the
// holder of the private key can have produced that signature.
func (a *Authenticator) Authenticate(ctx context.Context, account Account) (Credential, error) {
	challenge, err := a.RequestChallenge(ctx, account.Address())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
	}

	sig, err := account.SignMessage(ctx, []byte(challenge))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
	}

	claims := jwt.MapClaims{
		"address": account.Address().Hex(),
		"sig":     hexutil.Encode(sig),
	}
	token, err := jwt.NewWithClaims(a.token.method(), claims).SignedString(a.token.Secret)
	if err != nil {
		return "", fmt.Errorf("%w: sign token: %w", ErrAuthenticationFailed, err)
	}

	a.log.Debug("authenticated", "address", account.Address().Hex())
	return Credential(token), nil
}
