package auth

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the payload of an access token. UserID is serialized as "id".
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

type TokenConfig struct {
	// Alg is "HS256" or "ES256K".
	Alg string
	// Secret is the HMAC key for HS256.
	Secret string
	// SigningKey is a hex encoded secp256k1 private key for ES256K.
	SigningKey string
	TTL        time.Duration
	Issuer     string
}

// TokenService issues and verifies bearer tokens. Every token carries an
// expiry; tokens without one are rejected.
type TokenService struct {
	method    jwt.SigningMethod
	signKey   any
	verifyKey any
	ttl       time.Duration
	issuer    string
	parser    *jwt.Parser
}

func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	s := &TokenService{ttl: cfg.TTL, issuer: cfg.Issuer}
	switch strings.ToUpper(cfg.Alg) {
	case "", "HS256":
		if cfg.Secret == "" {
			return nil, errors.New("HS256 requires a secret")
		}
		s.method = jwt.SigningMethodHS256
		s.signKey = []byte(cfg.Secret)
		s.verifyKey = []byte(cfg.Secret)
	case "ES256K":
		priv, err := parsePrivateKey(cfg.SigningKey)
		if err != nil {
			return nil, err
		}
		s.method = SigningMethodES256K
		s.signKey = priv
		s.verifyKey = priv.PubKey()
	default:
		return nil, fmt.Errorf("unsupported token alg: %s", cfg.Alg)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	s.parser = jwt.NewParser(opts...)
	return s, nil
}

// Issue returns a signed token for userID and its expiry time.
func (s *TokenService) Issue(userID string) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(s.ttl)
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.signKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// Verify checks signature, algorithm, issuer and expiry and returns the user
// id carried by the token. All failures collapse into ErrInvalidToken.
func (s *TokenService) Verify(token string) (string, error) {
	var claims Claims
	parsed, err := s.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.verifyKey, nil
	})
	if err != nil || !parsed.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}

func parsePrivateKey(input string) (*secp256k1.PrivateKey, error) {
	b, err := decodeHex(input)
	if err != nil {
		return nil, fmt.Errorf("decode signing key: %w", err)
	}
	if len(b) != secp256k1.PrivKeyBytesLen {
		return nil, errors.New("invalid secp256k1 private key length")
	}
	return secp256k1.PrivKeyFromBytes(b), nil
}

func decodeHex(input string) ([]byte, error) {
	clean := strings.TrimPrefix(strings.TrimSpace(input), "0x")
	return hex.DecodeString(clean)
}
