// Package auth holds the brokerage session: OAuth2 tokens backed by a
// credentials file that is rewritten whenever the tokens are refreshed.
package auth

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const clientIDSuffix = "@AMER.OAUTHAP"

// ErrLoginRequired means no refresh token is stored and the user has to
// go through the authorization-code flow once.
var ErrLoginRequired = errors.New("interactive login required")

type SessionConfig struct {
	ClientID        string
	RedirectURL     string
	CredentialsPath string
	AuthURL         string
	TokenURL        string
}

// Session is safe for concurrent use. It implements oauth2.TokenSource.
type Session struct {
	conf      *oauth2.Config
	credsPath string

	mu  sync.RWMutex
	src oauth2.TokenSource
}

func NewSession(c SessionConfig) *Session {
	clientID := c.ClientID
	if !strings.HasSuffix(clientID, clientIDSuffix) {
		clientID += clientIDSuffix
	}
	return &Session{
		conf: &oauth2.Config{
			ClientID:    clientID,
			RedirectURL: c.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:   c.AuthURL,
				TokenURL:  c.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		credsPath: c.CredentialsPath,
	}
}

// AuthCodeURL is the page the user visits to grant access; the brokerage
// redirects back to the redirect URL with a code for Exchange.
func (s *Session) AuthCodeURL() string {
	return s.conf.AuthCodeURL("login", oauth2.AccessTypeOffline)
}

// Login exchanges the stored refresh token for a fresh access token.
// Calling it again forces another refresh, which is how callers recover
// from a rejected or expired access token.
func (s *Session) Login(ctx context.Context) error {
	tok, err := LoadToken(s.credsPath)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && tok.RefreshToken == "") {
		return fmt.Errorf("%w: visit %s", ErrLoginRequired, s.AuthCodeURL())
	}
	if err != nil {
		return fmt.Errorf("[AUTH] load credentials: %w", err)
	}

	tok.Expiry = time.Now().Add(-time.Minute)
	fresh, err := s.conf.TokenSource(ctx, tok).Token()
	if err != nil {
		return fmt.Errorf("[AUTH] refresh token: %w", err)
	}

	if err := s.install(ctx, fresh); err != nil {
		return err
	}
	log.Infof("[AUTH] logged in, access token valid until %s", fresh.Expiry.Format(time.RFC3339))
	return nil
}

// Exchange completes the authorization-code flow.
func (s *Session) Exchange(ctx context.Context, code string) error {
	tok, err := s.conf.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("[AUTH] exchange code: %w", err)
	}
	if err := s.install(ctx, tok); err != nil {
		return err
	}
	log.Info("[AUTH] authorization code exchanged")
	return nil
}

// Token returns a valid access token, refreshing it when it expires.
func (s *Session) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	src := s.src
	s.mu.RUnlock()
	if src == nil {
		return nil, ErrLoginRequired
	}
	return src.Token()
}

func (s *Session) install(ctx context.Context, tok *oauth2.Token) error {
	if err := SaveToken(s.credsPath, tok); err != nil {
		return fmt.Errorf("[AUTH] save credentials: %w", err)
	}

	// The refreshing source outlives the request that triggered the login.
	base := s.conf.TokenSource(context.WithoutCancel(ctx), tok)
	src := oauth2.ReuseTokenSource(tok, &persistingSource{
		base: base,
		path: s.credsPath,
		last: tok.AccessToken,
	})

	s.mu.Lock()
	s.src = src
	s.mu.Unlock()
	return nil
}

// persistingSource writes every newly issued token back to disk.
type persistingSource struct {
	base oauth2.TokenSource
	path string

	mu   sync.Mutex
	last string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last {
		if err := SaveToken(p.path, tok); err != nil {
			log.Warnf("[AUTH] persist refreshed token: %v", err)
		}
		p.last = tok.AccessToken
	}
	return tok, nil
}
