package credential

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// TMSProvider performs the password grant of the transportation management
// system's public API.
type TMSProvider struct {
	BaseURL      string // e.g. https://publicapi.turvo.com/v1
	APIKey       string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	Scope        string

	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

type tmsTokenRequest struct {
	GrantType string `json:"grant_type"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Scope     string `json:"scope"`
	Type      string `json:"type"`
}

type tmsTokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Acquire implements Provider.
func (p *TMSProvider) Acquire(ctx context.Context) (cred Credential, err error) {
	const name = "tms"
	defer func() { observe(name, err) }()

	var absent []string
	if p.BaseURL == "" {
		absent = append(absent, "TMS_BASE_URL")
	}
	if p.APIKey == "" {
		absent = append(absent, "TMS_API_KEY")
	}
	if p.Username == "" {
		absent = append(absent, "TMS_USERNAME")
	}
	if p.Password == "" {
		absent = append(absent, "TMS_PASSWORD")
	}
	if len(absent) > 0 {
		return Credential{}, missing(name, absent...)
	}

	q := url.Values{}
	q.Set("client_id", p.ClientID)
	q.Set("client_secret", p.ClientSecret)
	tokenURL := strings.TrimRight(p.BaseURL, "/") + "/oauth/token?" + q.Encode()

	scope := p.Scope
	if scope == "" {
		scope = "read+trust+write"
	}

	var resp tmsTokenResponse
	err = postJSON(ctx, httpClient(p.HTTPClient), name, tokenURL,
		http.Header{"x-api-key": []string{p.APIKey}},
		tmsTokenRequest{
			GrantType: "password",
			Username:  p.Username,
			Password:  p.Password,
			Scope:     scope,
			Type:      "business",
		}, &resp)
	if err != nil {
		return Credential{}, err
	}
	if resp.AccessToken == "" {
		return Credential{}, &AuthError{Provider: name, Message: "response carried no access_token"}
	}

	tok := &oauth2.Token{
		AccessToken:  resp.AccessToken,
		TokenType:    resp.TokenType,
		RefreshToken: resp.RefreshToken,
	}
	if resp.ExpiresIn > 0 {
		tok.Expiry = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}

	logger := log.Logger
	if p.Logger != nil {
		logger = *p.Logger
	}
	logger.Debug().Str("provider", name).Time("expiry", tok.Expiry).Msg("Credential acquired")

	return FromToken(tok), nil
}
