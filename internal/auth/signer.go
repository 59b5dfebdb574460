package auth

import (
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenTTL      = 60 * time.Second
	tokenIssuer   = "cdp"
	tokenAudience = "cdp_service"
	nonceBytes    = 16
)

// Signer mints short-lived ES256 request tokens bound to method and path.
// Every token is minted fresh per outbound call; tokens are never reused.
type Signer struct {
	credential *Credential
	key        *ecdsa.PrivateKey
	host       string
}

// NewSigner parses the credential's private key and returns a Signer for the
// given API host. An unparsable key is a CredentialError.
func NewSigner(credential *Credential, host string) (*Signer, error) {
	key, err := jwt.ParseECPrivateKeyFromPEM([]byte(credential.PrivateKey))
	if err != nil {
		return nil, &CredentialError{Reason: "failed to parse EC private key", Err: err}
	}
	return &Signer{
		credential: credential,
		key:        key,
		host:       host,
	}, nil
}

// Sign returns a bearer token authorizing one request for method and path.
// Any query string is stripped from the path before composing the signing
// URI.
func (s *Signer) Sign(method, path string) (string, error) {
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}
	uri := fmt.Sprintf("%s %s%s", method, s.host, path)

	nonce, err := randomNonce()
	if err != nil {
		return "", fmt.Errorf("failed to generate token nonce: %w", err)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"sub":  s.credential.Name,
		"iss":  tokenIssuer,
		"aud":  []string{tokenAudience},
		"nbf":  now.Unix(),
		"exp":  now.Add(tokenTTL).Unix(),
		"uris": []string{uri},
	})
	token.Header["kid"] = s.credential.Name
	token.Header["nonce"] = nonce

	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign request token: %w", err)
	}
	return signed, nil
}

func randomNonce() (string, error) {
	buf := make([]byte, nonceBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
