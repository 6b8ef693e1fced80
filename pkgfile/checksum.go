package pkgfile

import (
	"context"
	"crypto/subtle"
	"fmt"
	"hash"
	"io"

	"github.com/pjbgf/sha1cd"
)

// ChecksumSize is the width of the SHA-1 stored at the start of the trailer.
const ChecksumSize = 20

// chunkSize bounds each streaming read.
const chunkSize = 1 << 20

// Progress receives the number of bytes hashed. *pb.ProgressBar satisfies it.
type Progress interface {
	Add64(n int64) int64
}

// ChecksumResult is the outcome of a whole-file checksum.
type ChecksumResult struct {
	Computed [ChecksumSize]byte
	Expected [ChecksumSize]byte

	// Collision is set when the hashed data carries a SHA-1 collision
	// attack pattern. Computed is still the plain SHA-1 digest.
	Collision bool
}

// Match reports whether the stored checksum equals the computed one and no
// collision was detected.
func (r ChecksumResult) Match() bool {
	return !r.Collision && subtle.ConstantTimeCompare(r.Computed[:], r.Expected[:]) == 1
}

// Checksum hashes the first size-TrailerSize bytes of r and compares them with
// the checksum stored in the trailer. It checks ctx between chunks.
func Checksum(ctx context.Context, r io.ReaderAt, size int64, progress Progress) (ChecksumResult, error) {
	var res ChecksumResult
	if size < MinSize {
		return res, fmt.Errorf("%w: %d bytes", ErrTooSmall, size)
	}
	body := size - TrailerSize

	h := sha1cd.New()
	src := io.NewSectionReader(r, 0, body)
	buf := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		n, err := src.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
			if progress != nil {
				progress.Add64(int64(n))
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, fmt.Errorf("failed to read package body: %w", err)
		}
	}

	sum, collision := collisionSum(h)
	copy(res.Computed[:], sum)
	res.Collision = collision

	if _, err := r.ReadAt(res.Expected[:], body); err != nil {
		return res, fmt.Errorf("failed to read checksum trailer: %w", err)
	}
	if progress != nil {
		progress.Add64(TrailerSize)
	}
	return res, nil
}

// collisionResistant is implemented by sha1cd digests.
type collisionResistant interface {
	CollisionResistantSum(in []byte) ([]byte, bool)
}

func collisionSum(h hash.Hash) ([]byte, bool) {
	if cr, ok := h.(collisionResistant); ok {
		return cr.CollisionResistantSum(nil)
	}
	return h.Sum(nil), false
}

// Sum1 returns the SHA-1 of data and whether a collision pattern was detected.
func Sum1(data []byte) ([ChecksumSize]byte, bool) {
	h := sha1cd.New()
	h.Write(data)
	sum, collision := collisionSum(h)
	var out [ChecksumSize]byte
	copy(out[:], sum)
	return out, collision
}
