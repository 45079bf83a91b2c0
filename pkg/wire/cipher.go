package wire

import "bytes"

// InitialKey seeds the autokey stream of every message.
const InitialKey byte = 171

// Cipher is the autokey XOR stream state. Its only state is the key byte,
// which always equals the last ciphertext byte processed.
//
// A Cipher must not be reused across messages; start each message with
// NewCipher.
type Cipher struct {
	key byte
}

// NewCipher returns a Cipher positioned at InitialKey.
func NewCipher() Cipher {
	return Cipher{key: InitialKey}
}

// Encrypt ciphers p in place.
func (c *Cipher) Encrypt(p []byte) {
	for i, b := range p {
		x := b ^ c.key
		p[i] = x
		c.key = x
	}
}

// Decrypt reverses Encrypt in place. The key advances on the ciphertext
// byte, not the recovered one.
func (c *Cipher) Decrypt(p []byte) {
	for i, x := range p {
		p[i] = x ^ c.key
		c.key = x
	}
}

// EncryptBytes returns a ciphered copy of b, starting from InitialKey.
func EncryptBytes(b []byte) []byte {
	out := bytes.Clone(b)
	c := NewCipher()
	c.Encrypt(out)
	return out
}

// DecryptBytes returns a deciphered copy of b, starting from InitialKey.
func DecryptBytes(b []byte) []byte {
	out := bytes.Clone(b)
	c := NewCipher()
	c.Decrypt(out)
	return out
}
