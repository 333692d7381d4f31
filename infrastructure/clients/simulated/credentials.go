package simulated

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"omnicast/domain/model"
	"omnicast/domain/repository"

	"golang.org/x/oauth2"
)

const tokenLifetime = time.Hour

// CredentialIssuer stands in for an OAuth code exchange. It returns fixed
// mock tokens valid for one hour and an invented account.
type CredentialIssuer struct {
	mu   sync.Mutex
	rand *rand.Rand
	now  func() time.Time
}

func NewCredentialIssuer() *CredentialIssuer {
	return &CredentialIssuer{
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
		now:  time.Now,
	}
}

func (c *CredentialIssuer) WithSource(src rand.Source) *CredentialIssuer {
	c.rand = rand.New(src)
	return c
}

func (c *CredentialIssuer) WithClock(now func() time.Time) *CredentialIssuer {
	c.now = now
	return c
}

var _ repository.ICredentialIssuer = (*CredentialIssuer)(nil)

func (c *CredentialIssuer) Issue(ctx context.Context, platformName string) (*model.PlatformCredentials, error) {
	c.mu.Lock()
	suffix := c.rand.Intn(1000)
	c.mu.Unlock()

	return &model.PlatformCredentials{
		Token: &oauth2.Token{
			AccessToken:  "mock_token",
			RefreshToken: "mock_refresh",
			TokenType:    "Bearer",
			Expiry:       c.now().UTC().Add(tokenLifetime),
		},
		AccountID:   fmt.Sprintf("%s_user_%d", platformName, suffix),
		AccountName: fmt.Sprintf("Demo %s Account", capitalize(platformName)),
	}, nil
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
