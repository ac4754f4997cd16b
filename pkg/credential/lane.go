package credential

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// LaneProvider acquires a user token from the lane-rate partner's identity
// service: an organization token for the service account is exchanged for a
// token scoped to one user. Both requests belong to one acquisition.
type LaneProvider struct {
	IdentityURL     string // e.g. https://identity.api.dat.com/access/v1
	ServiceEmail    string
	ServicePassword string
	Username        string

	HTTPClient *http.Client
}

type laneTokenResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresWhen string `json:"expiresWhen"`
}

// Acquire implements Provider.
func (p *LaneProvider) Acquire(ctx context.Context) (cred Credential, err error) {
	const name = "lane-rate"
	defer func() { observe(name, err) }()

	var absent []string
	if p.IdentityURL == "" {
		absent = append(absent, "DAT_IDENTITY_URL")
	}
	if p.ServiceEmail == "" {
		absent = append(absent, "DAT_SERVICE_ACCOUNT_EMAIL")
	}
	if p.ServicePassword == "" {
		absent = append(absent, "DAT_SERVICE_ACCOUNT_PASSWORD")
	}
	if p.Username == "" {
		absent = append(absent, "DAT_USERNAME")
	}
	if len(absent) > 0 {
		return Credential{}, missing(name, absent...)
	}

	hc := httpClient(p.HTTPClient)
	base := strings.TrimRight(p.IdentityURL, "/")

	var org laneTokenResponse
	err = postJSON(ctx, hc, name, base+"/token/organization", nil,
		map[string]string{"username": p.ServiceEmail, "password": p.ServicePassword}, &org)
	if err != nil {
		return Credential{}, err
	}
	if org.AccessToken == "" {
		return Credential{}, &AuthError{Provider: name, Message: "organization token missing"}
	}

	orgAuth := http.Header{"Authorization": []string{"Bearer " + org.AccessToken}}

	var user laneTokenResponse
	err = postJSON(ctx, hc, name, base+"/token/user", orgAuth,
		map[string]string{"username": p.Username}, &user)
	if err != nil {
		return Credential{}, err
	}
	if user.AccessToken == "" {
		return Credential{}, &AuthError{Provider: name, Message: "user token missing"}
	}

	tok := &oauth2.Token{AccessToken: user.AccessToken, TokenType: "Bearer"}
	if t, perr := time.Parse(time.RFC3339, user.ExpiresWhen); perr == nil {
		tok.Expiry = t
	}
	return FromToken(tok), nil
}
