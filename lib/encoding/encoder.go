// Package encoding produces the opaque tokens that identify a binding in
// callback URLs.
//
// Tokens are msgpack-encoded claims in one of two modes:
//   - Signed (default): base64 + truncated HMAC-SHA256, readable but tamper-proof
//   - Sealed: AES-256-GCM, fully opaque
package encoding

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

var (
	ErrInvalidFormat    = errors.New("encoding: invalid token format")
	ErrSignatureInvalid = errors.New("encoding: signature verification failed")
	ErrDecryptFailed    = errors.New("encoding: decryption failed")
	ErrExpired          = errors.New("encoding: token expired")
)

// Claims is the payload of a callback token.
type Claims struct {
	BindingID string `msgpack:"b"`
	// IssuedAt is a unix timestamp.
	IssuedAt int64 `msgpack:"i"`
}

// Encoder seals and opens tokens with a shared key.
type Encoder struct {
	key []byte
	gcm cipher.AEAD
	// TTL bounds token age. Zero disables expiry.
	TTL time.Duration
	now func() time.Time
}

// NewEncoder creates an encoder. Keys shorter than 32 bytes are stretched
// with SHA-256.
func NewEncoder(key []byte) (*Encoder, error) {
	if len(key) < 32 {
		h := sha256.Sum256(key)
		key = h[:]
	}

	block, err := aes.NewCipher(key[:32])
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Encoder{key: key, gcm: gcm, now: time.Now}, nil
}

// Token issues a token for bindingID.
func (e *Encoder) Token(bindingID string, sealed bool) (string, error) {
	return e.Encode(Claims{BindingID: bindingID, IssuedAt: e.now().Unix()}, sealed)
}

// Open verifies a token and returns its claims.
func (e *Encoder) Open(token string, sealed bool) (Claims, error) {
	var c Claims
	if err := e.Decode(token, sealed, &c); err != nil {
		return Claims{}, err
	}
	if e.TTL > 0 && e.now().Sub(time.Unix(c.IssuedAt, 0)) > e.TTL {
		return Claims{}, ErrExpired
	}
	return c, nil
}

// Encode serializes v with msgpack and signs or seals it.
func (e *Encoder) Encode(v any, sealed bool) (string, error) {
	packed, err := msgpack.Marshal(v)
	if err != nil {
		return "", err
	}
	if sealed {
		return e.encrypt(packed)
	}
	return e.sign(packed), nil
}

// Decode reverses Encode into v.
func (e *Encoder) Decode(encoded string, sealed bool, v any) error {
	var (
		packed []byte
		err    error
	)
	if sealed {
		packed, err = e.decrypt(encoded)
	} else {
		packed, err = e.verify(encoded)
	}
	if err != nil {
		return err
	}
	if err := msgpack.Unmarshal(packed, v); err != nil {
		return ErrInvalidFormat
	}
	return nil
}

// sign returns base64(data) "." base64(hmac[:16]).
func (e *Encoder) sign(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data) + "." + base64.RawURLEncoding.EncodeToString(e.mac(data))
}

func (e *Encoder) verify(encoded string) ([]byte, error) {
	payload, sig, ok := strings.Cut(encoded, ".")
	if !ok {
		return nil, ErrInvalidFormat
	}
	data, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrInvalidFormat
	}
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return nil, ErrInvalidFormat
	}
	if !hmac.Equal(got, e.mac(data)) {
		return nil, ErrSignatureInvalid
	}
	return data, nil
}

func (e *Encoder) mac(data []byte) []byte {
	m := hmac.New(sha256.New, e.key)
	m.Write(data)
	return m.Sum(nil)[:16]
}

func (e *Encoder) encrypt(data []byte) (string, error) {
	nonce := make([]byte, e.gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(e.gcm.Seal(nonce, nonce, data, nil)), nil
}

func (e *Encoder) decrypt(encoded string) ([]byte, error) {
	ciphertext, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrInvalidFormat
	}
	if len(ciphertext) < e.gcm.NonceSize() {
		return nil, ErrInvalidFormat
	}
	nonce, ciphertext := ciphertext[:e.gcm.NonceSize()], ciphertext[e.gcm.NonceSize():]
	plain, err := e.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptFailed
	}
	return plain, nil
}
