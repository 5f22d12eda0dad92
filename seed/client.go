package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/machinebox/graphql"
)

// PartyMeta is the off-chain description of a party. Immutable once
// constructed. Password protection is an optional API variant; an empty
// password means an open party.
type PartyMeta struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Location    string `json:"location"`
	Image       string `json:"image"`
	Password    string `json:"-"`
}

// WithDefaults fills zero-value metadata fields with the stock dummy-party
// values used when seeding.
func (m PartyMeta) WithDefaults() PartyMeta {
	if m.Name == "" {
		m.Name = "Awesome Party"
	}
	if m.Description == "" {
		m.Description = "description"
	}
	if m.Date == "" {
		m.Date = "25th December"
	}
	if m.Location == "" {
		m.Location = "Some location"
	}
	if m.Image == "" {
		m.Image = "https://encrypted-tbn0.gstatic.com/images?q=tbn:ANd9GcSUk7ni2PYcBZ_qXOLriROqyiiZRGiCMfKnkdx_I1gTOVf3FPGQ"
	}
	return m
}

// SocialLink and LegalAgreement mirror the API's profile sub-objects.
type SocialLink struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type LegalAgreement struct {
	Type     string `json:"type"`
	Accepted string `json:"accepted"`
}

// AdminProfile is a user profile on the API. A profile with an empty
// Username is the not-yet-created state.
type AdminProfile struct {
	Address  string           `json:"address"`
	Username string           `json:"username"`
	RealName string           `json:"realName"`
	Email    string           `json:"email"`
	Social   []SocialLink     `json:"social"`
	Legal    []LegalAgreement `json:"legal"`
}

func (p AdminProfile) Exists() bool { return p.Username != "" }

const (
	pendingPartyMutation = `
  mutation createPendingParty($meta: PartyMetaInput!, $password: String) {
    id: createPendingParty(meta: $meta, password: $password)
  }
`
	updateProfileMutation = `
  mutation updateUserProfile($profile: UserProfileInput!) {
    profile: updateUserProfile(profile: $profile)  {
      address
      username
      realName
      social {
        type
        value
      }
      legal {
        type
        accepted
      }
    }
  }
`
	profileQuery = `
  query getUserProfile($address: String!) {
    profile: userProfile(address: $address) {
      address
      username
    }
  }
`
)

// APIClient issues the authenticated party-metadata calls. The credential is
// per-client state, so concurrent workflow runs against the same endpoint do
// not share or clobber each other's token.
type APIClient struct {
	gql        *graphql.Client
	credential Credential
	now        func() time.Time
	log        *slog.Logger
}

func NewAPIClient(endpoint string, log *slog.Logger) *APIClient {
	if log == nil {
		log = slog.Default()
	}
	return &APIClient{
		gql: graphql.NewClient(endpoint),
		now: time.Now,
		log: log,
	}
}

// SetCredential installs the bearer credential used by all subsequent calls.
func (c *APIClient) SetCredential(cred Credential) {
	c.credential = cred
}

func (c *APIClient) run(ctx context.Context, req *graphql.Request, resp any) error {
	req.Header.Set("Authorization", "Bearer "+string(c.credential))
	if err := c.gql.Run(ctx, req, resp); err != nil {
		if isExpiredCredentialError(err) {
			return fmt.Errorf("%w: %w", ErrCredentialExpired, err)
		}
		return err
	}
	return nil
}

// The credential is never refreshed mid-run, so a long-lived workflow can
// see its token expire; the server reports it on whichever call hits it.
func isExpiredCredentialError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "token expired") || strings.Contains(msg, "jwt expired")
}

// CreatePendingParty records the party metadata and returns the opaque
// pending party id the deployment transaction consumes. The id is
// single-use.
func (c *APIClient) CreatePendingParty(ctx context.Context, meta PartyMeta) (string, error) {
	req := graphql.NewRequest(pendingPartyMutation)
	req.Var("meta", meta)
	req.Var("password", meta.Password)

	var resp struct {
		ID string `json:"id"`
	}
	if err := c.run(ctx, req, &resp); err != nil {
		return "", fmt.Errorf("%w: %w", ErrPartyCreationFailed, err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("%w: empty pending party id", ErrPartyCreationFailed)
	}
	return resp.ID, nil
}

// FetchProfile returns the profile for an address. A missing profile is not
// an error: the API answers with an empty username.
func (c *APIClient) FetchProfile(ctx context.Context, address common.Address) (AdminProfile, error) {
	req := graphql.NewRequest(profileQuery)
	req.Var("address", address.Hex())

	var resp struct {
		Profile AdminProfile `json:"profile"`
	}
	if err := c.run(ctx, req, &resp); err != nil {
		return AdminProfile{}, fmt.Errorf("%w: fetch profile: %w", ErrProfileOperationFailed, err)
	}
	return resp.Profile, nil
}

// EnsureAdminProfile makes sure the owner address has a profile, creating
// one if needed. The check makes repeated seeding runs idempotent against
// the same backend: an existing profile is returned untouched instead of
// tripping a duplicate-profile error.
func (c *APIClient) EnsureAdminProfile(ctx context.Context, address common.Address) (AdminProfile, error) {
	existing, err := c.FetchProfile(ctx, address)
	if err != nil {
		return AdminProfile{}, err
	}
	if existing.Exists() {
		c.log.Info("admin profile already exists", "username", existing.Username)
		return existing, nil
	}

	c.log.Info("creating admin profile", "address", address.Hex())
	profile := AdminProfile{
		Email:    "admin@example.com",
		Username: fmt.Sprintf("adm%d", c.now().UnixMilli()),
		RealName: "Admin",
		Social:   []SocialLink{{Type: "twitter", Value: "admin"}},
		Legal: []LegalAgreement{
			{Type: "TERMS_AND_CONDITIONS", Accepted: "1547813987275"},
			{Type: "PRIVACY_POLICY", Accepted: "1547813987275"},
		},
	}

	req := graphql.NewRequest(updateProfileMutation)
	req.Var("profile", profile)

	var resp struct {
		Profile AdminProfile `json:"profile"`
	}
	if err := c.run(ctx, req, &resp); err != nil {
		return AdminProfile{}, fmt.Errorf("%w: update profile: %w", ErrProfileOperationFailed, err)
	}
	return resp.Profile, nil
}
