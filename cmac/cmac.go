// Package cmac implements the AES-128 CMAC (OMAC1) used for package section
// integrity.
//
// A MAC is the last block of an AES-CBC chain over the message with a zero IV.
// The final block is bound with one of two subkeys derived from the key:
// K1 when the message fills whole blocks, K2 after 10* padding otherwise.
//
//	mac, err := cmac.New(key)
//	if err != nil {
//		return err
//	}
//	tag := mac.Sum(section)
//	ok := cmac.Equal(tag[:], digest[:cmac.Size])
package cmac

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"errors"
	"fmt"
)

const (
	// KeySize is the AES-128 key width.
	KeySize = 16

	// Size is the width of a standard CMAC tag.
	Size = aes.BlockSize

	// WideSize is the width of the truncated-chain variant.
	WideSize = 20

	// rb is the GF(2^128) reduction constant for block doubling.
	rb = 0x87
)

var (
	// ErrInvalidKeyLength is returned when a key is not KeySize bytes.
	ErrInvalidKeyLength = errors.New("invalid CMAC key length")

	// ErrMessageTooShort is returned by SumWide when the padded message is
	// shorter than two blocks.
	ErrMessageTooShort = errors.New("message too short for wide CMAC")
)

// MAC holds an expanded key and its subkeys. It is immutable and safe for
// concurrent use.
type MAC struct {
	block  cipher.Block
	k1, k2 [aes.BlockSize]byte
}

// New expands key and derives the K1 and K2 subkeys.
func New(key []byte) (*MAC, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", ErrInvalidKeyLength, KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	m := &MAC{block: block}
	var l [aes.BlockSize]byte
	block.Encrypt(l[:], l[:])
	m.k1 = double(l)
	m.k2 = double(m.k1)
	return m, nil
}

// Subkeys returns K1 and K2.
func (m *MAC) Subkeys() (k1, k2 [aes.BlockSize]byte) {
	return m.k1, m.k2
}

// Sum returns the 16-byte CMAC of msg.
func (m *MAC) Sum(msg []byte) [Size]byte {
	chain := m.chain(msg)
	var out [Size]byte
	copy(out[:], chain[len(chain)-Size:])
	return out
}

// SumWide returns the last 20 bytes of the CBC chain. The prepared message
// must span at least two blocks.
func (m *MAC) SumWide(msg []byte) ([WideSize]byte, error) {
	var out [WideSize]byte
	if preparedLen(len(msg)) < 2*aes.BlockSize {
		return out, fmt.Errorf("%w: need at least %d bytes, got %d", ErrMessageTooShort, aes.BlockSize+1, len(msg))
	}
	chain := m.chain(msg)
	copy(out[:], chain[len(chain)-WideSize:])
	return out, nil
}

// chain pads msg, binds the final block with a subkey and returns the full
// CBC ciphertext.
func (m *MAC) chain(msg []byte) []byte {
	buf := make([]byte, preparedLen(len(msg)))
	copy(buf, msg)

	last := buf[len(buf)-aes.BlockSize:]
	key := m.k1
	if len(msg) == 0 || len(msg)%aes.BlockSize != 0 {
		buf[len(msg)] = 0x80
		key = m.k2
	}
	subtle.XORBytes(last, last, key[:])

	var iv [aes.BlockSize]byte
	cipher.NewCBCEncrypter(m.block, iv[:]).CryptBlocks(buf, buf)
	return buf
}

// Sum is a one-shot CMAC of msg under key.
func Sum(key, msg []byte) ([Size]byte, error) {
	m, err := New(key)
	if err != nil {
		return [Size]byte{}, err
	}
	return m.Sum(msg), nil
}

// Equal compares two tags in constant time.
func Equal(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// preparedLen is the padded length of an n-byte message.
func preparedLen(n int) int {
	if n != 0 && n%aes.BlockSize == 0 {
		return n
	}
	return (n/aes.BlockSize + 1) * aes.BlockSize
}

// double multiplies a block by x in GF(2^128).
func double(in [aes.BlockSize]byte) [aes.BlockSize]byte {
	var out [aes.BlockSize]byte
	var carry byte
	for i := len(in) - 1; i >= 0; i-- {
		out[i] = in[i]<<1 | carry
		carry = in[i] >> 7
	}
	if in[0]&0x80 != 0 {
		out[len(out)-1] ^= rb
	}
	return out
}
