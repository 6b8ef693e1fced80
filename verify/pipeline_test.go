package verify

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psn-tools/pkgcheck/bignum"
	"github.com/psn-tools/pkgcheck/internal/pkgtest"
	"github.com/psn-tools/pkgcheck/testdata"
)

var sectionBody = []byte("metadata section body used for digest tests")

func TestValidateSection(t *testing.T) {
	set := pkgtest.Keys(t)
	pipeline := NewPipeline(set)

	current, err := pkgtest.CurrentSigner(t, set).DigestBlock(sectionBody)
	require.NoError(t, err)
	legacy, err := pkgtest.LegacySigner(t, set).DigestBlock(sectionBody)
	require.NoError(t, err)

	tests := []struct {
		name   string
		body   []byte
		digest func() []byte
		want   SectionStatus
	}{
		{
			name:   "signed with current key",
			body:   sectionBody,
			digest: func() []byte { return current },
			want:   SectionOK,
		},
		{
			name:   "signed with legacy key",
			body:   sectionBody,
			digest: func() []byte { return legacy },
			want:   SectionOKLegacy,
		},
		{
			name: "cmac mismatch",
			body: sectionBody,
			digest: func() []byte {
				d := clone(current)
				d[0] ^= 0x01
				return d
			},
			want: SectionCmacMismatch,
		},
		{
			name: "correct cmac with wrong trailing sha1 bytes",
			body: sectionBody,
			digest: func() []byte {
				d := clone(current)
				d[0x3F] ^= 0x01
				return d
			},
			want: SectionHashMismatch,
		},
		{
			name: "corrupted signature",
			body: sectionBody,
			digest: func() []byte {
				d := clone(current)
				d[0x20] ^= 0x01
				return d
			},
			want: SectionSignatureInvalid,
		},
		{
			name: "zero signature",
			body: sectionBody,
			digest: func() []byte {
				d := clone(current)
				for i := 0x10; i < 0x38; i++ {
					d[i] = 0
				}
				return d
			},
			want: SectionSignatureInvalid,
		},
		{
			name:   "tampered body reports cmac before sha1",
			body:   append(clone(sectionBody), '!'),
			digest: func() []byte { return current },
			want:   SectionCmacMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pipeline.ValidateSection(tt.body, tt.digest())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, "got %s", got)
		})
	}
}

func TestValidateSectionCollidingBody(t *testing.T) {
	set := pkgtest.Keys(t)
	body, err := testdata.ShatteredPrefix()
	require.NoError(t, err)

	// CMAC and the SHA-1 tail are correct, so only collision detection can
	// reject the section.
	digest, err := pkgtest.CurrentSigner(t, set).DigestBlock(body)
	require.NoError(t, err)

	got, err := NewPipeline(set).ValidateSection(body, digest)
	require.NoError(t, err)
	assert.Equal(t, SectionHashMismatch, got)
}

func TestValidateSectionEmbeddedKeysRejectTestSignature(t *testing.T) {
	set := pkgtest.Keys(t)
	digest, err := pkgtest.CurrentSigner(t, set).DigestBlock(sectionBody)
	require.NoError(t, err)

	// Same curve and CMAC key, but neither embedded public key matches.
	embedded := NewPipeline(mustDefaultKeys(t))
	got, err := embedded.ValidateSection(sectionBody, digest)
	require.NoError(t, err)
	assert.Equal(t, SectionSignatureInvalid, got)
}

func TestValidateSectionDigestLength(t *testing.T) {
	pipeline := NewPipeline(pkgtest.Keys(t))
	for _, n := range []int{0, 0x3F, 0x41} {
		_, err := pipeline.ValidateSection(sectionBody, make([]byte, n))
		require.ErrorIs(t, err, ErrInvalidLength)
		require.ErrorIs(t, err, bignum.ErrInvalidLength)
	}
}

func TestSectionStatus(t *testing.T) {
	tests := []struct {
		status SectionStatus
		str    string
		valid  bool
	}{
		{SectionOK, "ok", true},
		{SectionOKLegacy, "ok (old)", true},
		{SectionCmacMismatch, "cmac", false},
		{SectionHashMismatch, "sha1", false},
		{SectionSignatureInvalid, "ecdsa", false},
		{SectionStatus(42), "unknown(42)", false},
	}

	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			assert.Equal(t, tt.str, tt.status.String())
			assert.Equal(t, tt.valid, tt.status.Valid())

			b, err := json.Marshal(tt.status)
			require.NoError(t, err)
			assert.Equal(t, `"`+tt.str+`"`, string(b))
		})
	}
}

func TestChecksumStatus(t *testing.T) {
	assert.Equal(t, "-", ChecksumNotChecked.String())
	assert.Equal(t, "ok", ChecksumOK.String())
	assert.Equal(t, "csum", ChecksumMismatch.String())
	assert.Equal(t, "collision", ChecksumCollision.String())
	assert.Equal(t, "unknown(9)", ChecksumStatus(9).String())

	b, err := json.Marshal(ChecksumMismatch)
	require.NoError(t, err)
	assert.Equal(t, `"csum"`, string(b))
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
