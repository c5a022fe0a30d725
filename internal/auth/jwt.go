package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fathima-sithara/ephemeral-chat/internal/config"
)

const RoleAdmin = "admin"

// Claims is the identity the rest of the service works with.
type Claims struct {
	UserID string
	Role   string
}

type Validator struct {
	alg    string
	pub    *rsa.PublicKey
	secret []byte
}

// NewValidator builds a token validator for the configured algorithm:
// RS256 with a PEM public key, or HS256 with a shared secret.
func NewValidator(cfg config.JWT) (*Validator, error) {
	switch strings.ToUpper(cfg.Alg) {
	case "HS256":
		if cfg.HSSecret == "" {
			return nil, errors.New("hs secret required")
		}
		return &Validator{alg: "HS256", secret: []byte(cfg.HSSecret)}, nil
	case "RS256":
		b, err := os.ReadFile(cfg.PublicKeyPath)
		if err != nil {
			return nil, err
		}
		block, _ := pem.Decode(b)
		if block == nil {
			return nil, errors.New("failed to decode public key")
		}
		pubIfc, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		pub, ok := pubIfc.(*rsa.PublicKey)
		if !ok {
			return nil, errors.New("not rsa public key")
		}
		return &Validator{alg: "RS256", pub: pub}, nil
	default:
		return nil, errors.New("unsupported jwt alg")
	}
}

func (v *Validator) Validate(tokenStr string) (*Claims, error) {
	tok, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if v.alg == "HS256" {
			return v.secret, nil
		}
		return v.pub, nil
	}, jwt.WithValidMethods([]string{v.alg}))
	if err != nil {
		return nil, err
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return nil, errors.New("invalid token")
	}

	c := &Claims{}
	if sub, ok := claims["sub"].(string); ok {
		c.UserID = sub
	} else if userID, ok := claims["user_id"].(string); ok {
		c.UserID = userID
	}
	if c.UserID == "" {
		return nil, errors.New("invalid token")
	}
	if role, ok := claims["role"].(string); ok {
		c.Role = role
	}
	return c, nil
}
