package smarthome

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// CustomData is the credential and endpoint pair round-tripped by the
// platform between SYNC and later QUERY/EXECUTE calls.
type CustomData struct {
	Authorization string `json:"authorization"`
	URLBase       string `json:"urlBase"`
}

// Validate reports ErrInvalidCredentials when no bearer token is present.
func (c *CustomData) Validate() error {
	if c == nil || strings.TrimSpace(c.Authorization) == "" {
		return fmt.Errorf("no token supplied in custom data: %w", ErrInvalidCredentials)
	}
	return nil
}

// WithURLBase returns a copy whose URLBase is replaced by a non-empty
// override.
func (c CustomData) WithURLBase(override string) CustomData {
	if override != "" {
		c.URLBase = override
	}
	return c
}

// ParseAuthorization builds CustomData from an inbound Authorization header.
// The header carries "Bearer <JWT>"; the JWT payload's iss claim is the
// gateway base URL. A non-empty override replaces the issuer lookup but the
// token must still be present.
func ParseAuthorization(header, override string) (CustomData, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return CustomData{}, fmt.Errorf("missing authorization header: %w", ErrInvalidCredentials)
	}

	creds := CustomData{Authorization: header}
	if override != "" {
		creds.URLBase = override
		return creds, nil
	}

	iss, err := issuer(header)
	if err != nil {
		return CustomData{}, err
	}
	creds.URLBase = iss
	return creds, nil
}

func issuer(header string) (string, error) {
	token := header
	if i := strings.IndexByte(token, ' '); i >= 0 {
		token = strings.TrimSpace(token[i+1:])
	}

	parts := strings.Split(token, ".")
	if len(parts) < 2 || parts[1] == "" {
		return "", fmt.Errorf("token is not a JWT: %w", ErrInvalidCredentials)
	}

	raw, err := decodeSegment(parts[1])
	if err != nil {
		return "", fmt.Errorf("decoding token payload: %v: %w", err, ErrInvalidCredentials)
	}

	var claims struct {
		Iss string `json:"iss"`
	}
	if err := json.Unmarshal(raw, &claims); err != nil {
		return "", fmt.Errorf("parsing token payload: %v: %w", err, ErrInvalidCredentials)
	}
	if claims.Iss == "" {
		return "", fmt.Errorf("token has no issuer: %w", ErrInvalidCredentials)
	}
	return strings.TrimSuffix(claims.Iss, "/"), nil
}

// decodeSegment accepts both URL-safe and standard alphabets, padded or not.
func decodeSegment(seg string) ([]byte, error) {
	seg = strings.TrimRight(seg, "=")
	if b, err := base64.RawURLEncoding.DecodeString(seg); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(seg)
}
