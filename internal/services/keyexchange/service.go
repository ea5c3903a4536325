// Package keyexchange implements the session handshake primitives: symmetric
// key generation, RSA-OAEP wrapping of that key under a client public key, and
// AES-CBC encryption of JSON payloads.
package keyexchange

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"github.com/mcoot/chessrooms/internal/dependencies/random"
	"github.com/mcoot/chessrooms/internal/model"
)

// KeyEntropy is the number of random bytes behind a session key.
// The key is carried as its hex rendering and the ASCII bytes of that rendering
// are the AES key, which makes it an AES-256 key.
const KeyEntropy = 16

// Envelope is the wire shape of an encrypted payload
type Envelope struct {
	EncryptedData string `json:"encryptedData"`
	IV            string `json:"iv"`
}

// Service performs key generation, key wrapping and payload encryption
type Service struct {
	random random.Random
}

// New creates a new key exchange service
func New(rnd random.Random) *Service {
	return &Service{random: rnd}
}

// GenerateKey returns a fresh hex-encoded session key
func (s *Service) GenerateKey() (string, error) {
	b, err := s.random.Bytes(KeyEntropy)
	if err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// WrapKey encrypts key under the PEM encoded RSA public key using OAEP with
// SHA-256 and returns the ciphertext base64 encoded.
func (s *Service) WrapKey(key, publicKeyPEM string) (string, error) {
	if strings.TrimSpace(publicKeyPEM) == "" {
		return "", fmt.Errorf("%w: public key is required", model.ErrMissingField)
	}

	pub, err := ParsePublicKey(publicKeyPEM)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrKeyWrap, err)
	}

	wrapped, err := rsa.EncryptOAEP(sha256.New(), s.entropy(), pub, []byte(key), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrKeyWrap, err)
	}
	return base64.StdEncoding.EncodeToString(wrapped), nil
}

// Encrypt JSON-serializes payload and encrypts it with key under a fresh IV
func (s *Service) Encrypt(payload any, key string) (Envelope, error) {
	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return Envelope{}, fmt.Errorf("invalid session key: %w", err)
	}

	plaintext, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal payload: %w", err)
	}

	iv, err := s.random.Bytes(aes.BlockSize)
	if err != nil {
		return Envelope{}, fmt.Errorf("generate iv: %w", err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return Envelope{
		EncryptedData: base64.StdEncoding.EncodeToString(ciphertext),
		IV:            base64.StdEncoding.EncodeToString(iv),
	}, nil
}

// Decrypt reverses Encrypt, unmarshalling the plaintext into out.
// Every failure is reported as model.ErrBadRequest.
func (s *Service) Decrypt(env Envelope, key string, out any) error {
	if env.EncryptedData == "" || env.IV == "" {
		return fmt.Errorf("%w: encrypted payload is incomplete", model.ErrBadRequest)
	}

	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrBadRequest, err)
	}

	iv, err := base64.StdEncoding.DecodeString(env.IV)
	if err != nil || len(iv) != aes.BlockSize {
		return fmt.Errorf("%w: invalid iv", model.ErrBadRequest)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(env.EncryptedData)
	if err != nil || len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return fmt.Errorf("%w: invalid ciphertext", model.ErrBadRequest)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	plaintext, err = pkcs7Unpad(plaintext, aes.BlockSize)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrBadRequest, err)
	}

	if err := json.Unmarshal(plaintext, out); err != nil {
		return fmt.Errorf("%w: %v", model.ErrBadRequest, err)
	}
	return nil
}

// UnwrapKey is the client half of WrapKey
func UnwrapKey(wrapped string, priv *rsa.PrivateKey) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(wrapped)
	if err != nil {
		return "", fmt.Errorf("decode wrapped key: %w", err)
	}
	key, err := rsa.DecryptOAEP(sha256.New(), nil, priv, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("unwrap key: %w", err)
	}
	return string(key), nil
}

// ParsePublicKey accepts PKIX ("PUBLIC KEY") and PKCS#1 ("RSA PUBLIC KEY") PEM blocks
func ParsePublicKey(publicKeyPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, errors.New("no PEM block found")
	}

	switch block.Type {
	case "RSA PUBLIC KEY":
		return x509.ParsePKCS1PublicKey(block.Bytes)
	default:
		parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		pub, ok := parsed.(*rsa.PublicKey)
		if !ok {
			return nil, errors.New("public key is not RSA")
		}
		return pub, nil
	}
}

// MarshalPublicKey renders pub as a PKIX PEM block
func MarshalPublicKey(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", err
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}

// entropy adapts the injected Random to the io.Reader the rsa package expects
func (s *Service) entropy() *randomReader {
	return &randomReader{random: s.random}
}

type randomReader struct {
	random random.Random
}

func (r *randomReader) Read(p []byte) (int, error) {
	b, err := r.random.Bytes(len(p))
	if err != nil {
		return 0, err
	}
	return copy(p, b), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("invalid padded length")
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, errors.New("invalid padding")
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errors.New("invalid padding")
		}
	}
	return data[:len(data)-n], nil
}
