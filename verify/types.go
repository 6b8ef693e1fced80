// Package verify checks the signed sections and checksum of PSN packages.
//
// Each package carries two signed sections, the header and the metadata.
// Each ends in a 64-byte digest block:
//   - [0x00:0x10) AES-128 CMAC of the section
//   - [0x10:0x38) ECDSA signature r‖s over the section's SHA-1
//   - [0x38:0x40) bytes 12..20 of the section's SHA-1
//
// The whole file is also covered by a SHA-1 stored in its trailer.
//
// # Section Checks
//
// ValidateSection reports exactly one status per section, most severe first:
//
//	pipeline := verify.NewPipeline(keySet)
//	status, err := pipeline.ValidateSection(body, digest)
//	if err != nil {
//		return err // malformed digest block
//	}
//	if !status.Valid() {
//		log.Printf("section failed: %s", status)
//	}
//
// The signature is tried with the current public key, then the legacy one.
// A section only the legacy key verifies reports SectionOKLegacy.
//
// # Package Checks
//
// Service drives the pipeline over package files, in parallel when asked:
//
//	svc := verify.NewService(keySet, verify.WithWorkers(4))
//	results, err := svc.CheckAll(ctx, paths)
//
// The encrypted content section is not checked.
package verify

import (
	"fmt"
)

// SectionStatus is the outcome of checking one signed section
type SectionStatus uint8

const (
	SectionOK SectionStatus = iota
	SectionOKLegacy
	SectionCmacMismatch
	SectionHashMismatch
	SectionSignatureInvalid
)

// MarshalJSON converts SectionStatus to its short report form
func (s SectionStatus) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", s.String())), nil
}

// String converts SectionStatus to its short report form
func (s SectionStatus) String() string {
	switch s {
	case SectionOK:
		return "ok"
	case SectionOKLegacy:
		return "ok (old)"
	case SectionCmacMismatch:
		return "cmac"
	case SectionHashMismatch:
		return "sha1"
	case SectionSignatureInvalid:
		return "ecdsa"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// Valid reports whether the section verified with either public key
func (s SectionStatus) Valid() bool {
	return s == SectionOK || s == SectionOKLegacy
}

// ChecksumStatus is the outcome of the whole-file SHA-1 check
type ChecksumStatus uint8

const (
	ChecksumNotChecked ChecksumStatus = iota
	ChecksumOK
	ChecksumMismatch
	ChecksumCollision
)

// MarshalJSON converts ChecksumStatus to its short report form
func (c ChecksumStatus) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", c.String())), nil
}

// String converts ChecksumStatus to its short report form
func (c ChecksumStatus) String() string {
	switch c {
	case ChecksumNotChecked:
		return "-"
	case ChecksumOK:
		return "ok"
	case ChecksumMismatch:
		return "csum"
	case ChecksumCollision:
		return "collision"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// PackageResult is the outcome of checking one package file
type PackageResult struct {
	Path string
	Size int64

	// Invalid is set when the file is too small or lacks the package magic.
	// No other check runs.
	Invalid bool

	ContentID     string
	HeaderChecked bool
	Header        SectionStatus

	// Truncated is set when the file is shorter than the header's total
	// size. Checking stops after the header.
	Truncated bool

	MetaChecked bool
	Meta        SectionStatus

	Checksum ChecksumStatus

	// Err holds an I/O or parse failure that stopped checking.
	Err error
}

// Passed reports whether every check that ran succeeded and nothing was
// skipped
func (r *PackageResult) Passed() bool {
	return !r.Invalid && !r.Truncated && r.Err == nil &&
		r.HeaderChecked && r.Header.Valid() &&
		r.MetaChecked && r.Meta.Valid() &&
		r.Checksum == ChecksumOK
}

// ReportEntry is the serializable form of a PackageResult. Statuses are
// rendered as their short report strings.
type ReportEntry struct {
	Path      string `json:"path" cbor:"path"`
	Size      int64  `json:"size" cbor:"size"`
	ContentID string `json:"contentId,omitempty" cbor:"contentId,omitempty"`
	Header    string `json:"header" cbor:"header"`
	Metadata  string `json:"metadata" cbor:"metadata"`
	Checksum  string `json:"checksum" cbor:"checksum"`
	Passed    bool   `json:"passed" cbor:"passed"`
	Error     string `json:"error,omitempty" cbor:"error,omitempty"`
}

// Report is the serializable outcome of a run
type Report struct {
	Packages []ReportEntry `json:"packages" cbor:"packages"`
	Checked  int           `json:"checked" cbor:"checked"`
	Failed   int           `json:"failed" cbor:"failed"`
}
