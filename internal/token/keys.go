// Package token implements the token lifecycle core: RS256 access token
// signing, HS256 refresh token signing bound to persisted row ids, the RSA
// key material behind the published JWKS, and the verification-side JWKS
// provider used by the authentication middleware.
package token

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
)

// JWKS represents a JSON Web Key Set as published on the discovery
// endpoint and consumed by verifiers.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK represents a single JSON Web Key. Only RSA signing keys are used by
// this service.
type JWK struct {
	Kty string `json:"kty"`           // key type (RSA)
	Use string `json:"use,omitempty"` // sig
	Kid string `json:"kid,omitempty"` // key id, echoed in token headers
	Alg string `json:"alg,omitempty"` // RS256
	N   string `json:"n,omitempty"`   // modulus, base64url without padding
	E   string `json:"e,omitempty"`   // exponent, base64url without padding
}

// KeyPair holds the RS256 signing key and the identifier under which its
// public half is published.
type KeyPair struct {
	KeyID      string
	PrivateKey *rsa.PrivateKey
}

// GenerateKeyPair creates a fresh RSA key pair for RS256 signing. Anything
// below 2048 bits is bumped up to 2048. Used by provisioning tooling and
// tests; production deployments load a key from disk instead.
func GenerateKeyPair(keyID string, bits int) (*KeyPair, error) {
	if bits < 2048 {
		bits = 2048
	}
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("generate RSA key: %w", err)
	}
	return &KeyPair{KeyID: keyID, PrivateKey: key}, nil
}

// LoadKeyPair reads an RSA private key PEM from disk. Both PKCS#1 and
// PKCS#8 encodings are accepted. A missing or unreadable key is a startup
// failure, not a per-request condition.
func LoadKeyPair(keyID, path string) (*KeyPair, error) {
	pemData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read private key %s: %w", path, err)
	}
	key, err := ParseRSAPrivateKeyPEM(pemData)
	if err != nil {
		return nil, fmt.Errorf("parse private key %s: %w", path, err)
	}
	return &KeyPair{KeyID: keyID, PrivateKey: key}, nil
}

// ParseRSAPrivateKeyPEM decodes a PEM block holding an RSA private key in
// either PKCS#1 or PKCS#8 form.
func ParseRSAPrivateKeyPEM(pemData []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("unsupported private key encoding: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is not RSA")
	}
	return key, nil
}

// ExportPrivateKeyPEM renders the private key as a PKCS#1 PEM string.
// Used by tests and key provisioning tooling.
func (kp *KeyPair) ExportPrivateKeyPEM() string {
	return string(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(kp.PrivateKey),
	}))
}

// ToJWK converts the public half of the key pair to JWK form.
func (kp *KeyPair) ToJWK() JWK {
	pub := &kp.PrivateKey.PublicKey
	return JWK{
		Kty: "RSA",
		Use: "sig",
		Kid: kp.KeyID,
		Alg: "RS256",
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}

// JWKS returns the key set published on the discovery endpoint. A single
// active signing key is exposed.
func (kp *KeyPair) JWKS() JWKS {
	return JWKS{Keys: []JWK{kp.ToJWK()}}
}

// PublicKey reconstructs an rsa.PublicKey from a JWK entry. The inverse of
// ToJWK; used by the verification-side provider.
func (k JWK) PublicKey() (*rsa.PublicKey, error) {
	if k.Kty != "RSA" {
		return nil, fmt.Errorf("unsupported key type %q", k.Kty)
	}
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}
	e := new(big.Int).SetBytes(eBytes)
	if !e.IsInt64() || e.Int64() <= 0 {
		return nil, fmt.Errorf("invalid exponent")
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(e.Int64()),
	}, nil
}
