package smarthome

import (
	"encoding/base64"
	"errors"
	"testing"
)

func bearer(payload string) string {
	return "Bearer hdr." + base64.RawURLEncoding.EncodeToString([]byte(payload)) + ".sig"
}

func TestParseAuthorization_Issuer(t *testing.T) {
	header := bearer(`{"iss":"https://gateway.example.org/","sub":"1"}`)

	creds, err := ParseAuthorization(header, "")
	if err != nil {
		t.Fatalf("ParseAuthorization error: %v", err)
	}
	if creds.URLBase != "https://gateway.example.org" {
		t.Errorf("url base: got %s", creds.URLBase)
	}
	if creds.Authorization != header {
		t.Errorf("authorization must be preserved verbatim, got %s", creds.Authorization)
	}
}

func TestParseAuthorization_PaddedStandardEncoding(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte(`{"iss":"https://gw.local"}`))
	creds, err := ParseAuthorization("Bearer a."+payload+".b", "")
	if err != nil {
		t.Fatalf("ParseAuthorization error: %v", err)
	}
	if creds.URLBase != "https://gw.local" {
		t.Errorf("url base: got %s", creds.URLBase)
	}
}

func TestParseAuthorization_Override(t *testing.T) {
	creds, err := ParseAuthorization("Bearer opaque-token", "https://override.example")
	if err != nil {
		t.Fatalf("ParseAuthorization error: %v", err)
	}
	if creds.URLBase != "https://override.example" {
		t.Errorf("url base: got %s", creds.URLBase)
	}
}

func TestParseAuthorization_Malformed(t *testing.T) {
	cases := map[string]string{
		"empty":      "",
		"not a jwt":  "Bearer opaque-token",
		"bad base64": "Bearer a.!!!.b",
		"not json":   bearer("not-json"),
		"no issuer":  bearer(`{"sub":"1"}`),
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAuthorization(header, "")
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestCustomData_Validate(t *testing.T) {
	var missing *CustomData
	if err := missing.Validate(); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("nil custom data: expected ErrInvalidCredentials, got %v", err)
	}
	if err := (&CustomData{URLBase: "https://gw"}).Validate(); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("empty token: expected ErrInvalidCredentials, got %v", err)
	}
	if err := (&CustomData{Authorization: "Bearer x"}).Validate(); err != nil {
		t.Errorf("valid custom data: got %v", err)
	}
}
