package keyset

// Package keyset fetches and parses JWKS-like documents: remotely served
// collections of public keys indexed by key id, used to verify
// asymmetrically-signed tokens.

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
)

// JWK is a single entry of a JWKS document. Only RSA keys are supported;
// entries of other types are skipped during parsing.
type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use,omitempty"`
	Alg string `json:"alg,omitempty"`
	N   string `json:"n,omitempty"`
	E   string `json:"e,omitempty"`
}

// Document is the wire shape of a JWKS endpoint response.
type Document struct {
	Keys []JWK `json:"keys"`
}

// KeySet maps key id to public key material.
type KeySet map[string]*rsa.PublicKey

// Key returns the public key for a key id, if present.
func (s KeySet) Key(kid string) (*rsa.PublicKey, bool) {
	k, ok := s[kid]
	return k, ok
}

// Parse decodes a raw JWKS document into a KeySet.
func Parse(raw []byte) (KeySet, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode key set: %w", err)
	}

	set := make(KeySet, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := k.publicKey()
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k.Kid, err)
		}
		set[k.Kid] = pub
	}
	return set, nil
}

func (k JWK) publicKey() (*rsa.PublicKey, error) {
	if k.N == "" || k.E == "" {
		return nil, errors.New("missing modulus or exponent")
	}

	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}

	e := 0
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}
	if e <= 0 {
		return nil, errors.New("invalid exponent")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}
