// Package auth verifies bearer tokens and extracts the calling tenant.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Modes understood by Verifier.
const (
	ModeDev  = "dev"  // token is "tenant:role", nothing is verified
	ModeHMAC = "hmac" // HS256-signed JWT
)

var (
	ErrMalformed    = errors.New("auth: malformed token")
	ErrBadSignature = errors.New("auth: bad signature")
	ErrExpired      = errors.New("auth: token expired")
)

// Verifier validates tokens and extracts tenant/role claims.
type Verifier struct {
	Mode        string
	HMACSecret  []byte
	TenantClaim string
	RoleClaim   string
	now         func() time.Time
}

type Principal struct {
	Tenant string
	Role   string
}

// IsAdmin reports whether the principal may change tenant configuration.
func (p Principal) IsAdmin() bool { return p.Role == "admin" }

// NewVerifier builds a verifier for mode. An empty mode means dev.
func NewVerifier(mode, secret string) (*Verifier, error) {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		mode = ModeDev
	}
	switch mode {
	case ModeDev:
	case ModeHMAC:
		if secret == "" {
			return nil, errors.New("auth: hmac mode requires a secret")
		}
	default:
		return nil, errors.New("auth: unsupported mode " + mode)
	}
	return &Verifier{
		Mode:        mode,
		HMACSecret:  []byte(secret),
		TenantClaim: "tenant",
		RoleClaim:   "role",
		now:         time.Now,
	}, nil
}

func (v *Verifier) Verify(token string) (Principal, error) {
	if v.Mode == ModeDev {
		parts := strings.Split(token, ":")
		if len(parts) >= 2 && parts[0] != "" {
			return Principal{Tenant: parts[0], Role: strings.ToLower(parts[1])}, nil
		}
		return Principal{}, errors.New("auth: invalid dev token; expected tenant:role")
	}

	segs := strings.Split(token, ".")
	if len(segs) != 3 {
		return Principal{}, ErrMalformed
	}
	headerJSON, err := b64urlDecode(segs[0])
	if err != nil {
		return Principal{}, ErrMalformed
	}
	payloadJSON, err := b64urlDecode(segs[1])
	if err != nil {
		return Principal{}, ErrMalformed
	}
	sig, err := b64urlDecode(segs[2])
	if err != nil {
		return Principal{}, ErrMalformed
	}
	var hdr map[string]any
	if err := json.Unmarshal(headerJSON, &hdr); err != nil {
		return Principal{}, ErrMalformed
	}
	if alg, _ := hdr["alg"].(string); alg != "HS256" {
		return Principal{}, errors.New("auth: unsupported alg for hmac")
	}
	if !hmac.Equal(v.mac(segs[0]+"."+segs[1]), sig) {
		return Principal{}, ErrBadSignature
	}

	var claims map[string]any
	if err := json.Unmarshal(payloadJSON, &claims); err != nil {
		return Principal{}, ErrMalformed
	}
	if exp, ok := claims["exp"].(float64); ok && v.clock().Unix() >= int64(exp) {
		return Principal{}, ErrExpired
	}
	tenant, _ := claims[v.TenantClaim].(string)
	role, _ := claims[v.RoleClaim].(string)
	if tenant == "" {
		return Principal{}, errors.New("auth: missing tenant claim")
	}
	if role == "" {
		role = "user"
	}
	return Principal{Tenant: tenant, Role: strings.ToLower(role)}, nil
}

// Sign issues an HS256 token carrying claims. Used by tooling and tests.
func (v *Verifier) Sign(claims map[string]any) (string, error) {
	hdr, _ := json.Marshal(map[string]string{"alg": "HS256", "typ": "JWT"})
	body, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	input := b64urlEncode(hdr) + "." + b64urlEncode(body)
	return input + "." + b64urlEncode(v.mac(input)), nil
}

func (v *Verifier) mac(input string) []byte {
	m := hmac.New(sha256.New, v.HMACSecret)
	m.Write([]byte(input))
	return m.Sum(nil)
}

func (v *Verifier) clock() time.Time {
	if v.now == nil {
		return time.Now()
	}
	return v.now()
}

func b64urlDecode(s string) ([]byte, error) { return base64.RawURLEncoding.DecodeString(s) }
func b64urlEncode(b []byte) string          { return base64.RawURLEncoding.EncodeToString(b) }
