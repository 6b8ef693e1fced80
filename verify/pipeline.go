package verify

import (
	"bytes"
	"fmt"

	"github.com/psn-tools/pkgcheck/bignum"
	"github.com/psn-tools/pkgcheck/cmac"
	"github.com/psn-tools/pkgcheck/crypto"
	"github.com/psn-tools/pkgcheck/keys"
	"github.com/psn-tools/pkgcheck/pkgfile"
)

// Offsets within a section digest block.
const (
	digestCmacEnd = 0x10
	digestSigEnd  = 0x38
	digestHashLo  = 0x0C
	digestHashHi  = 0x14
)

// ErrInvalidLength reports a digest block that is not 64 bytes. It is the
// same kind as bignum.ErrInvalidLength.
var ErrInvalidLength error = bignum.ErrInvalidLength

// Pipeline checks signed sections against a key set. It holds no mutable
// state and is safe for concurrent use.
type Pipeline struct {
	keys *keys.Set
}

// NewPipeline creates a pipeline for the given keys
func NewPipeline(set *keys.Set) *Pipeline {
	return &Pipeline{keys: set}
}

// Keys returns the pipeline's key set
func (p *Pipeline) Keys() *keys.Set {
	return p.keys
}

// ValidateSection checks section against its 64-byte digest block. Checks run
// in order of severity and stop at the first failure, except that both public
// keys are tried before a signature is rejected.
func (p *Pipeline) ValidateSection(section, digest []byte) (SectionStatus, error) {
	if len(digest) != pkgfile.DigestSize {
		return 0, fmt.Errorf("%w: digest block must be %d bytes, got %d", ErrInvalidLength, pkgfile.DigestSize, len(digest))
	}
	sum, collision := pkgfile.Sum1(section)

	tag := p.keys.MAC().Sum(section)
	if !cmac.Equal(tag[:], digest[:digestCmacEnd]) {
		return SectionCmacMismatch, nil
	}

	// A section carrying a SHA-1 collision pattern cannot be trusted even
	// when its digest matches.
	if collision || !bytes.Equal(digest[digestSigEnd:], sum[digestHashLo:digestHashHi]) {
		return SectionHashMismatch, nil
	}

	sig, err := crypto.ParseSignature(digest[digestCmacEnd:digestSigEnd])
	if err != nil {
		return 0, err
	}
	ok, err := crypto.Verify(p.keys.Curve, p.keys.Current, sig, sum[:])
	if err != nil {
		return 0, fmt.Errorf("failed to verify with current key: %w", err)
	}
	if ok {
		return SectionOK, nil
	}

	ok, err = crypto.Verify(p.keys.Curve, p.keys.Legacy, sig, sum[:])
	if err != nil {
		return 0, fmt.Errorf("failed to verify with legacy key: %w", err)
	}
	if ok {
		return SectionOKLegacy, nil
	}
	return SectionSignatureInvalid, nil
}
