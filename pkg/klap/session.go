package klap

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// Protocol sizes.
const (
	SeedSize      = 16
	hashSize      = sha256.Size
	signatureSize = sha256.Size
	keySize       = 16
	ivBaseSize    = 12
	sigKeySize    = 28
)

var (
	errCiphertext = errors.New("ciphertext is not a multiple of the block size")
	errPadding    = errors.New("invalid padding")
)

// AuthHash returns SHA256(SHA1(username) ‖ SHA1(password)).
func AuthHash(c Credentials) []byte {
	u := sha1.Sum([]byte(c.Username))
	p := sha1.Sum([]byte(c.Password))
	return sha256Of(u[:], p[:])
}

// ServerHash is the device's proof in the handshake1 response.
func ServerHash(local, remote, auth []byte) []byte {
	return sha256Of(local, remote, auth)
}

// ClientHash is the client's proof sent with handshake2.
func ClientHash(local, remote, auth []byte) []byte {
	return sha256Of(remote, local, auth)
}

// session holds the keys of one established session. seq is incremented
// before every request; each request uses its own IV.
type session struct {
	id      string
	cookie  string
	expires time.Time

	key    []byte
	ivBase []byte
	sig    []byte
	seq    int32
}

// newSession derives the session keys from both seeds and the auth hash.
func newSession(local, remote, auth []byte) *session {
	iv := sha256Of([]byte("iv"), local, remote, auth)
	return &session{
		key:    sha256Of([]byte("lsk"), local, remote, auth)[:keySize],
		ivBase: iv[:ivBaseSize],
		seq:    int32(binary.BigEndian.Uint32(iv[len(iv)-4:])),
		sig:    sha256Of([]byte("ldk"), local, remote, auth)[:sigKeySize],
	}
}

func (s *session) expired(now time.Time) bool {
	return !s.expires.IsZero() && !now.Before(s.expires)
}

func (s *session) iv(seq int32) []byte {
	iv := make([]byte, 0, aes.BlockSize)
	iv = append(iv, s.ivBase...)
	return binary.BigEndian.AppendUint32(iv, uint32(seq))
}

// encrypt advances seq and returns it with the signed request body.
func (s *session) encrypt(plain []byte) (int32, []byte, error) {
	s.seq++
	seq := s.seq
	body, err := s.seal(seq, plain)
	return seq, body, err
}

// seal returns signature ‖ AES-128-CBC(PKCS#7(plain)) for seq.
func (s *session) seal(seq int32, plain []byte) ([]byte, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, err
	}

	padded := pkcs7Pad(plain, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, s.iv(seq)).CryptBlocks(ciphertext, padded)

	var seqBytes [4]byte
	binary.BigEndian.PutUint32(seqBytes[:], uint32(seq))
	signature := sha256Of(s.sig, seqBytes[:], ciphertext)

	return append(signature, ciphertext...), nil
}

// open decrypts a body sealed for seq. The signature is not checked; the
// device side uses verify.
func (s *session) open(seq int32, body []byte) ([]byte, error) {
	if len(body) < signatureSize {
		return nil, fmt.Errorf("body of %d bytes is shorter than the signature", len(body))
	}
	ciphertext := body[signatureSize:]
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, errCiphertext
	}

	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, err
	}

	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, s.iv(seq)).CryptBlocks(plain, ciphertext)
	return pkcs7Unpad(plain, aes.BlockSize)
}

// verify checks the signature of a sealed body.
func (s *session) verify(seq int32, body []byte) bool {
	if len(body) < signatureSize {
		return false
	}
	var seqBytes [4]byte
	binary.BigEndian.PutUint32(seqBytes[:], uint32(seq))
	want := sha256Of(s.sig, seqBytes[:], body[signatureSize:])
	return subtle.ConstantTimeCompare(want, body[:signatureSize]) == 1
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(bytes.Clone(data), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errPadding
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, errPadding
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errPadding
		}
	}
	return data[:len(data)-n], nil
}

func sha256Of(parts ...[]byte) []byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}
