package token

import (
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWKSProvider resolves RS256 verification keys from a key discovery
// endpoint. Fetched keys are cached process-wide and refetches are rate
// limited, so verification stays cheap under load and the discovery source
// is not hammered when garbage tokens arrive with unknown kids.
//
// The provider is shared mutable process-lifetime state and is safe for
// concurrent use; every request handler goroutine goes through the mutex.
type JWKSProvider struct {
	uri    string
	client *http.Client

	mu          sync.Mutex
	keys        map[string]*rsa.PublicKey
	fetchedAt   time.Time
	lastAttempt time.Time

	cacheTTL     time.Duration // how long a fetched key set is trusted
	minFetchWait time.Duration // floor between two fetches, the rate limit
}

const (
	defaultJWKSCacheTTL     = 10 * time.Minute
	defaultJWKSMinFetchWait = 30 * time.Second
)

// NewJWKSProvider builds a provider for the given JWKS URI with default
// cache and rate-limit policy.
func NewJWKSProvider(uri string) *JWKSProvider {
	return &JWKSProvider{
		uri:          uri,
		client:       &http.Client{Timeout: 5 * time.Second},
		keys:         map[string]*rsa.PublicKey{},
		cacheTTL:     defaultJWKSCacheTTL,
		minFetchWait: defaultJWKSMinFetchWait,
	}
}

// Keyfunc is passed to jwt.Parse for access token verification. It rejects
// non-RSA signing methods and resolves the public key by the token's kid
// header.
func (p *JWKSProvider) Keyfunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
		return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
	}
	kid, _ := t.Header["kid"].(string)
	return p.getKey(kid)
}

// getKey returns the cached key for kid, refetching the key set when the
// cache is stale or the kid is unknown, subject to the rate limit.
func (p *JWKSProvider) getKey(kid string) (*rsa.PublicKey, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	fresh := now.Sub(p.fetchedAt) < p.cacheTTL
	if key := p.lookupLocked(kid); key != nil && fresh {
		return key, nil
	}

	// Stale cache or unknown kid: refetch unless a fetch happened too
	// recently. In that case serve whatever is cached rather than fail on
	// a merely stale key.
	if now.Sub(p.lastAttempt) >= p.minFetchWait {
		p.lastAttempt = now
		if err := p.fetchLocked(); err != nil {
			if key := p.lookupLocked(kid); key != nil {
				return key, nil
			}
			return nil, fmt.Errorf("fetch jwks: %w", err)
		}
		p.fetchedAt = time.Now()
	}

	if key := p.lookupLocked(kid); key != nil {
		return key, nil
	}
	return nil, fmt.Errorf("no key found for kid %q", kid)
}

// lookupLocked resolves kid against the cache. A token without a kid is
// accepted only while exactly one key is published.
func (p *JWKSProvider) lookupLocked(kid string) *rsa.PublicKey {
	if kid == "" && len(p.keys) == 1 {
		for _, k := range p.keys {
			return k
		}
	}
	return p.keys[kid]
}

func (p *JWKSProvider) fetchLocked() error {
	resp, err := p.client.Get(p.uri)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks endpoint returned %s", resp.Status)
	}

	var set JWKS
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("decode jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Use != "" && k.Use != "sig" {
			continue
		}
		pub, err := k.PublicKey()
		if err != nil {
			continue // skip unusable entries, keep the rest
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return fmt.Errorf("jwks document contains no usable signing keys")
	}
	p.keys = keys
	return nil
}
