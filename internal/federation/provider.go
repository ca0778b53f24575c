package federation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const DefaultUserinfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// GoogleConfig holds the OAuth client registration. AuthURL and TokenURL
// override Google's endpoints when set.
type GoogleConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"`
	UserinfoURL  string `env:"USERINFO_URL" envDefault:"https://www.googleapis.com/oauth2/v3/userinfo"`
	AuthURL      string `env:"AUTH_URL"`
	TokenURL     string `env:"TOKEN_URL"`
}

// Enabled reports whether enough is configured to run the flow.
func (c GoogleConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RedirectURL != ""
}

// GoogleProvider runs the authorization-code flow against Google and reads
// the signed-in user's profile.
type GoogleProvider struct {
	oauth       *oauth2.Config
	userinfoURL string
}

func NewGoogleProvider(cfg GoogleConfig) *GoogleProvider {
	endpoint := google.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	userinfo := cfg.UserinfoURL
	if userinfo == "" {
		userinfo = DefaultUserinfoURL
	}
	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{"openid", "profile", "email"},
		},
		userinfoURL: userinfo,
	}
}

func (g *GoogleProvider) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state)
}

type googleUserinfo struct {
	Sub           string `json:"sub"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Picture       string `json:"picture"`
}

// Exchange trades the authorization code for a token and fetches the profile.
func (g *GoogleProvider) Exchange(ctx context.Context, code string) (Profile, error) {
	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("code exchange: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userinfoURL, nil)
	if err != nil {
		return Profile{}, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := g.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Profile{}, fmt.Errorf("fetch profile: status %d: %s", resp.StatusCode, body)
	}

	var info googleUserinfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	return Profile{
		ProviderUserID: info.Sub,
		DisplayName:    info.Name,
		Email:          info.Email,
		EmailVerified:  info.EmailVerified,
		PhotoURL:       info.Picture,
	}, nil
}
