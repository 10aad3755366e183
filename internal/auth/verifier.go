// Package auth verifies Firebase ID tokens for admin sign-in.
package auth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lunajoyas/catalogo/internal/observability"
)

const (
	DefaultKeysURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"
	issuerPrefix   = "https://securetoken.google.com/"
	keysTTL        = time.Hour
	// minKeysRefetch spaces out refreshes triggered by unknown key ids,
	// so forged headers cannot turn every request into a key download.
	minKeysRefetch = time.Minute
	maxKeysBytes   = 1 << 20
)

var (
	ErrInvalidToken = errors.New("invalid id token")
	ErrNotAdmin     = errors.New("account is not an administrator")
)

// Identity is the verified subject of an ID token.
type Identity struct {
	UID   string
	Email string
	Name  string
}

type Claims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type Options struct {
	ProjectID   string
	AdminEmails []string
	KeysURL     string
	HTTPClient  *http.Client
	Now         func() time.Time
}

type Verifier struct {
	projectID   string
	adminEmails []string
	keysURL     string
	httpClient  *http.Client
	now         func() time.Time

	keysMu        sync.RWMutex
	keys          map[string]*rsa.PublicKey
	keysFetchedAt time.Time
	keysExpiresAt time.Time

	// fetchMu serializes downloads of the key set.
	fetchMu sync.Mutex
}

func NewVerifier(opts Options) (*Verifier, error) {
	if strings.TrimSpace(opts.ProjectID) == "" {
		return nil, fmt.Errorf("project id is required")
	}
	if len(opts.AdminEmails) == 0 {
		return nil, fmt.Errorf("at least one admin email is required")
	}

	v := &Verifier{
		projectID:  opts.ProjectID,
		keysURL:    opts.KeysURL,
		httpClient: opts.HTTPClient,
		now:        opts.Now,
	}
	if v.keysURL == "" {
		v.keysURL = DefaultKeysURL
	}
	if v.httpClient == nil {
		v.httpClient = observability.NewHTTPClient(10 * time.Second)
	}
	if v.now == nil {
		v.now = time.Now
	}
	for _, email := range opts.AdminEmails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			v.adminEmails = append(v.adminEmails, email)
		}
	}
	return v, nil
}

// Verify checks the token signature and claims and that the account is an
// allowed administrator.
func (v *Verifier) Verify(ctx context.Context, rawToken string) (*Identity, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.projectID),
		jwt.WithIssuer(issuerPrefix+v.projectID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(v.now),
	)
	_, err := parser.ParseWithClaims(rawToken, claims, func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("token has no key id")
		}
		return v.publicKey(ctx, kid)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if email == "" || !claims.EmailVerified || !slices.Contains(v.adminEmails, email) {
		return nil, ErrNotAdmin
	}

	return &Identity{UID: claims.Subject, Email: email, Name: claims.Name}, nil
}

func (v *Verifier) publicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if key, settled := v.cachedKey(kid); key != nil || settled {
		return keyOrUnknown(key, kid)
	}

	v.fetchMu.Lock()
	defer v.fetchMu.Unlock()

	// Another request may have refreshed the set while this one waited.
	if key, settled := v.cachedKey(kid); key != nil || settled {
		return keyOrUnknown(key, kid)
	}

	keys, err := v.fetchKeys(ctx)
	if err != nil {
		return nil, err
	}

	now := v.now()
	v.keysMu.Lock()
	v.keys = keys
	v.keysFetchedAt = now
	v.keysExpiresAt = now.Add(keysTTL)
	v.keysMu.Unlock()

	return keyOrUnknown(keys[kid], kid)
}

// cachedKey returns the cached key for kid. settled reports that a miss
// must not trigger a download because the set is fresh and was fetched
// less than minKeysRefetch ago.
func (v *Verifier) cachedKey(kid string) (key *rsa.PublicKey, settled bool) {
	v.keysMu.RLock()
	defer v.keysMu.RUnlock()

	now := v.now()
	if !now.Before(v.keysExpiresAt) {
		return nil, false
	}
	if key := v.keys[kid]; key != nil {
		return key, true
	}
	return nil, now.Before(v.keysFetchedAt.Add(minKeysRefetch))
}

func keyOrUnknown(key *rsa.PublicKey, kid string) (*rsa.PublicKey, error) {
	if key == nil {
		return nil, fmt.Errorf("unknown signing key %q", kid)
	}
	return key, nil
}

func (v *Verifier) fetchKeys(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.keysURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create key request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch signing keys: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch signing keys: status %d", resp.StatusCode)
	}

	var certs map[string]string
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxKeysBytes)).Decode(&certs); err != nil {
		return nil, fmt.Errorf("failed to decode signing keys: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(certs))
	for kid, pemData := range certs {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemData))
		if err != nil {
			return nil, fmt.Errorf("failed to parse signing key %q: %w", kid, err)
		}
		keys[kid] = key
	}
	return keys, nil
}
