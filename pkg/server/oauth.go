package server

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// OAuth here is a convention, not a protocol: the server mints a random
// hex key and trusts it for the token lifetime. The HTTP API location
// rides along base64-encoded so clients know where to use the token.
const (
	oauthKeyLength     = 86
	oauthTokenLifetime = 300
)

// newOAuthToken issues a token of the form <key>.<base64(api url)> with
// a trailing NUL, as clients expect a C string.
func newOAuthToken(apiURL string) ([]byte, error) {
	raw := make([]byte, (oauthKeyLength+1)/2)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	key := []byte(hex.EncodeToString(raw))[:oauthKeyLength]

	token := append(key, '.')
	token = append(token, base64.StdEncoding.EncodeToString([]byte(apiURL))...)
	token = append(token, 0)
	return token, nil
}
