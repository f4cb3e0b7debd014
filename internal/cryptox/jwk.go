package cryptox

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
)

// Interchange encoding for keys: one explicit, versioned JSON document per
// key, shaped like an RFC 7517 JWK so it stays compatible with key material
// produced by WebCrypto exportKey("jwk"). Three kinds exist:
//
//	RSA public:  {"v":1,"kty":"RSA","alg":"RSA-OAEP-256","n":...,"e":...}
//	RSA private: public fields plus "d","p","q","dp","dq","qi"
//	symmetric:   {"v":1,"kty":"oct","alg":"A256CBC","k":...}
//
// All big-integer and key fields are base64url without padding. Importers
// reject documents of the wrong kind, so a public key cannot be smuggled in
// where a symmetric key is expected.

const interchangeVersion = 1

const (
	algRSAOAEP = "RSA-OAEP-256"
	algAESCBC  = "A256CBC"
)

type jwk struct {
	Ver int    `json:"v,omitempty"`
	Kty string `json:"kty"`
	Alg string `json:"alg,omitempty"`

	// RSA fields.
	N  string `json:"n,omitempty"`
	E  string `json:"e,omitempty"`
	D  string `json:"d,omitempty"`
	P  string `json:"p,omitempty"`
	Q  string `json:"q,omitempty"`
	DP string `json:"dp,omitempty"`
	DQ string `json:"dq,omitempty"`
	QI string `json:"qi,omitempty"`

	// Symmetric key bytes.
	K string `json:"k,omitempty"`
}

var b64 = base64.RawURLEncoding

func encodeBig(i *big.Int) string {
	return b64.EncodeToString(i.Bytes())
}

func decodeBig(s string) (*big.Int, error) {
	b, err := b64.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}

func parseJWK(serialized string) (*jwk, error) {
	var doc jwk
	if err := json.Unmarshal([]byte(serialized), &doc); err != nil {
		return nil, fmt.Errorf("parsing key interchange document: %w", err)
	}
	if doc.Ver > interchangeVersion {
		return nil, fmt.Errorf("unsupported key interchange version %d", doc.Ver)
	}
	return &doc, nil
}

// ExportPublicKey serializes a public key to its interchange form.
func ExportPublicKey(key PublicKey) (string, error) {
	if key.key == nil {
		return "", ErrNotPublicKey
	}
	doc := jwk{
		Ver: interchangeVersion,
		Kty: "RSA",
		Alg: algRSAOAEP,
		N:   encodeBig(key.key.N),
		E:   encodeBig(big.NewInt(int64(key.key.E))),
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ImportPublicKey parses the interchange form of a public key. A document
// that carries private-key fields is rejected rather than silently truncated.
func ImportPublicKey(serialized string) (PublicKey, error) {
	doc, err := parseJWK(serialized)
	if err != nil {
		return PublicKey{}, err
	}
	if doc.Kty != "RSA" || doc.N == "" || doc.E == "" {
		return PublicKey{}, ErrNotPublicKey
	}
	if doc.D != "" {
		return PublicKey{}, ErrNotPublicKey
	}
	n, err := decodeBig(doc.N)
	if err != nil {
		return PublicKey{}, fmt.Errorf("decoding modulus: %w", err)
	}
	e, err := decodeBig(doc.E)
	if err != nil {
		return PublicKey{}, fmt.Errorf("decoding exponent: %w", err)
	}
	if !e.IsInt64() {
		return PublicKey{}, ErrNotPublicKey
	}
	return PublicKey{key: &rsa.PublicKey{N: n, E: int(e.Int64())}}, nil
}

// ExportPrivateKey serializes a private key to its interchange form. The
// result is highly sensitive and exists only as input to the vault.
func ExportPrivateKey(key PrivateKey) (string, error) {
	if key.key == nil {
		return "", ErrNotPrivateKey
	}
	k := key.key
	if len(k.Primes) != 2 {
		return "", fmt.Errorf("expected two-prime RSA key, got %d primes", len(k.Primes))
	}
	k.Precompute()
	doc := jwk{
		Ver: interchangeVersion,
		Kty: "RSA",
		Alg: algRSAOAEP,
		N:   encodeBig(k.N),
		E:   encodeBig(big.NewInt(int64(k.E))),
		D:   encodeBig(k.D),
		P:   encodeBig(k.Primes[0]),
		Q:   encodeBig(k.Primes[1]),
		DP:  encodeBig(k.Precomputed.Dp),
		DQ:  encodeBig(k.Precomputed.Dq),
		QI:  encodeBig(k.Precomputed.Qinv),
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ImportPrivateKey parses the interchange form of a private key and binds it
// to RSA-OAEP/SHA-256 decryption.
func ImportPrivateKey(serialized string) (PrivateKey, error) {
	doc, err := parseJWK(serialized)
	if err != nil {
		return PrivateKey{}, err
	}
	if doc.Kty != "RSA" || doc.D == "" || doc.P == "" || doc.Q == "" {
		return PrivateKey{}, ErrNotPrivateKey
	}

	n, err := decodeBig(doc.N)
	if err != nil {
		return PrivateKey{}, fmt.Errorf("decoding modulus: %w", err)
	}
	e, err := decodeBig(doc.E)
	if err != nil {
		return PrivateKey{}, fmt.Errorf("decoding exponent: %w", err)
	}
	d, err := decodeBig(doc.D)
	if err != nil {
		return PrivateKey{}, fmt.Errorf("decoding private exponent: %w", err)
	}
	p, err := decodeBig(doc.P)
	if err != nil {
		return PrivateKey{}, fmt.Errorf("decoding prime: %w", err)
	}
	q, err := decodeBig(doc.Q)
	if err != nil {
		return PrivateKey{}, fmt.Errorf("decoding prime: %w", err)
	}
	if !e.IsInt64() {
		return PrivateKey{}, ErrNotPrivateKey
	}

	key := &rsa.PrivateKey{
		PublicKey: rsa.PublicKey{N: n, E: int(e.Int64())},
		D:         d,
		Primes:    []*big.Int{p, q},
	}
	key.Precompute()
	if err := key.Validate(); err != nil {
		return PrivateKey{}, fmt.Errorf("invalid private key: %w", err)
	}
	return PrivateKey{key: key}, nil
}

// ExportSymmetricKey serializes a symmetric key to its interchange form.
// This is the per-recipient plaintext that the fan-out protocol wraps.
func ExportSymmetricKey(key SymmetricKey) (string, error) {
	if len(key) != FileKeySize {
		return "", ErrNotSymmetricKey
	}
	doc := jwk{
		Ver: interchangeVersion,
		Kty: "oct",
		Alg: algAESCBC,
		K:   b64.EncodeToString(key),
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ImportSymmetricKey parses the interchange form of a symmetric key.
func ImportSymmetricKey(serialized string) (SymmetricKey, error) {
	doc, err := parseJWK(serialized)
	if err != nil {
		return nil, err
	}
	if doc.Kty != "oct" || doc.K == "" {
		return nil, ErrNotSymmetricKey
	}
	k, err := b64.DecodeString(doc.K)
	if err != nil {
		return nil, fmt.Errorf("decoding key bytes: %w", err)
	}
	if len(k) != FileKeySize {
		return nil, ErrNotSymmetricKey
	}
	return SymmetricKey(k), nil
}
