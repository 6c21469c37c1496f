package namespace

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Sentinel errors for namespace derivation.
var (
	ErrMissingToken = errors.New("namespace: token is empty")
	ErrMissingClaim = errors.New("namespace: claim not present in token")
	ErrNoKeyfunc    = errors.New("namespace: keyfunc required to verify tokens")
)

// DeriverConfig configures JWT namespace derivation.
type DeriverConfig struct {
	// Claim is the claim used as the namespace value.
	// Default: "sub"
	Claim string

	// TenantClaim, when set, is prepended to the namespace as
	// "<tenant>/<claim>" for multi-tenant key separation.
	TenantClaim string

	// Keyfunc supplies the verification key. Required unless
	// AllowUnverified is set.
	Keyfunc jwt.Keyfunc

	// AllowUnverified skips signature verification. Only appropriate
	// when an upstream middleware has already authenticated the token
	// and the namespace is a cache partitioning concern, not a
	// security boundary.
	AllowUnverified bool
}

// Deriver extracts namespace tokens from JWTs.
type Deriver struct {
	config DeriverConfig
	parser *jwt.Parser
}

// NewDeriver creates a namespace deriver.
func NewDeriver(config DeriverConfig) (*Deriver, error) {
	if config.Claim == "" {
		config.Claim = "sub"
	}
	if config.Keyfunc == nil && !config.AllowUnverified {
		return nil, ErrNoKeyfunc
	}
	return &Deriver{
		config: config,
		parser: jwt.NewParser(),
	}, nil
}

// FromToken derives the namespace from a JWT string.
func (d *Deriver) FromToken(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrMissingToken
	}

	claims := jwt.MapClaims{}
	if d.config.AllowUnverified {
		if _, _, err := d.parser.ParseUnverified(tokenString, claims); err != nil {
			return "", fmt.Errorf("namespace: parse token: %w", err)
		}
	} else {
		token, err := d.parser.ParseWithClaims(tokenString, claims, d.config.Keyfunc)
		if err != nil {
			return "", fmt.Errorf("namespace: verify token: %w", err)
		}
		if !token.Valid {
			return "", fmt.Errorf("namespace: token invalid")
		}
	}

	ns, err := stringClaim(claims, d.config.Claim)
	if err != nil {
		return "", err
	}

	if d.config.TenantClaim != "" {
		tenant, err := stringClaim(claims, d.config.TenantClaim)
		if err != nil {
			return "", err
		}
		return tenant + "/" + ns, nil
	}
	return ns, nil
}

// stringClaim reads a claim as a non-empty string.
func stringClaim(claims jwt.MapClaims, name string) (string, error) {
	v, ok := claims[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrMissingClaim, name)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: %q", ErrMissingClaim, name)
	}
	return s, nil
}
