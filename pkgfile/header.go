// Package pkgfile decodes the on-disk layout of PSN packages.
//
// A package starts with a 0xC0-byte big-endian header. The first 0x80 bytes
// are covered by the 64-byte digest block that follows them. The header
// locates a metadata section, itself ending in a digest block, and the
// encrypted content. The last 0x20 bytes of the file hold a SHA-1 of
// everything before them.
//
// # Layout
//
//	0x00  magic        7F 50 4B 47
//	0x04  revision     u16
//	0x06  type         u16
//	0x08  meta offset  u32
//	0x0C  meta count   u32
//	0x10  meta size    u32
//	0x14  item count   u32
//	0x18  total size   u64
//	0x20  data offset  u64
//	0x28  data size    u64
//	0x30  content id   0x30 bytes, NUL padded
//	0x60  digest       16 bytes
//	0x70  data RIV     16 bytes
//	0x80  digest block 64 bytes
//
// Nothing here checks digests. See the verify package.
package pkgfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// HeaderSize is the size of the fixed header including its digest block.
	HeaderSize = 0xC0

	// DigestSize is the size of a section digest block.
	DigestSize = 0x40

	// TrailerSize is the size of the whole-file checksum trailer.
	TrailerSize = 0x20

	// MinSize is the smallest file that can hold a header and trailer.
	MinSize = HeaderSize + TrailerSize

	// signedHeaderSize is the part of the header covered by its digest block.
	signedHeaderSize = HeaderSize - DigestSize

	contentIDOffset = 0x30
	contentIDSize   = 0x30
)

// Magic is the big-endian package magic, "\x7FPKG".
var Magic = [4]byte{0x7F, 'P', 'K', 'G'}

var (
	ErrTooSmall      = errors.New("file too small to be a package")
	ErrBadMagic      = errors.New("bad package magic")
	ErrSectionBounds = errors.New("section out of bounds")
)

// Header is the decoded fixed package header.
type Header struct {
	Revision     uint16
	Type         uint16
	MetaOffset   uint32
	MetaCount    uint32
	MetaSize     uint32
	ItemCount    uint32
	TotalSize    uint64
	DataOffset   uint64
	DataSize     uint64
	ContentID    string
	Digest       [16]byte
	DataRIV      [16]byte
	HeaderDigest [DigestSize]byte

	raw [HeaderSize]byte
}

// ParseHeader decodes the first HeaderSize bytes of b.
func ParseHeader(b []byte) (*Header, error) {
	if len(b) < HeaderSize {
		return nil, fmt.Errorf("%w: header needs %d bytes, got %d", ErrTooSmall, HeaderSize, len(b))
	}
	if !bytes.Equal(b[:4], Magic[:]) {
		return nil, fmt.Errorf("%w: %x", ErrBadMagic, b[:4])
	}

	h := &Header{
		Revision:   binary.BigEndian.Uint16(b[0x04:]),
		Type:       binary.BigEndian.Uint16(b[0x06:]),
		MetaOffset: binary.BigEndian.Uint32(b[0x08:]),
		MetaCount:  binary.BigEndian.Uint32(b[0x0C:]),
		MetaSize:   binary.BigEndian.Uint32(b[0x10:]),
		ItemCount:  binary.BigEndian.Uint32(b[0x14:]),
		TotalSize:  binary.BigEndian.Uint64(b[0x18:]),
		DataOffset: binary.BigEndian.Uint64(b[0x20:]),
		DataSize:   binary.BigEndian.Uint64(b[0x28:]),
		ContentID:  string(bytes.TrimRight(b[contentIDOffset:contentIDOffset+contentIDSize], "\x00")),
	}
	copy(h.Digest[:], b[0x60:0x70])
	copy(h.DataRIV[:], b[0x70:0x80])
	copy(h.HeaderDigest[:], b[signedHeaderSize:HeaderSize])
	copy(h.raw[:], b[:HeaderSize])
	return h, nil
}

// ReadHeader reads and decodes the header at the start of r.
func ReadHeader(r io.ReaderAt) (*Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := r.ReadAt(buf, 0); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %v", ErrTooSmall, err)
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	return ParseHeader(buf)
}

// SignedBytes returns the header bytes covered by HeaderDigest.
func (h *Header) SignedBytes() []byte {
	return append([]byte(nil), h.raw[:signedHeaderSize]...)
}

// Marshal encodes h. The digest block is written as held in HeaderDigest.
func (h *Header) Marshal() []byte {
	b := make([]byte, HeaderSize)
	copy(b, Magic[:])
	binary.BigEndian.PutUint16(b[0x04:], h.Revision)
	binary.BigEndian.PutUint16(b[0x06:], h.Type)
	binary.BigEndian.PutUint32(b[0x08:], h.MetaOffset)
	binary.BigEndian.PutUint32(b[0x0C:], h.MetaCount)
	binary.BigEndian.PutUint32(b[0x10:], h.MetaSize)
	binary.BigEndian.PutUint32(b[0x14:], h.ItemCount)
	binary.BigEndian.PutUint64(b[0x18:], h.TotalSize)
	binary.BigEndian.PutUint64(b[0x20:], h.DataOffset)
	binary.BigEndian.PutUint64(b[0x28:], h.DataSize)
	copy(b[contentIDOffset:contentIDOffset+contentIDSize], h.ContentID)
	copy(b[0x60:0x70], h.Digest[:])
	copy(b[0x70:0x80], h.DataRIV[:])
	copy(b[signedHeaderSize:], h.HeaderDigest[:])
	return b
}

// Section is a signed region: its body and trailing digest block.
type Section struct {
	Body   []byte
	Digest []byte
}

// SplitSection splits raw into body and its trailing DigestSize block.
func SplitSection(raw []byte) (Section, error) {
	if len(raw) < DigestSize {
		return Section{}, fmt.Errorf("%w: section of %d bytes cannot hold a digest block", ErrSectionBounds, len(raw))
	}
	cut := len(raw) - DigestSize
	return Section{Body: raw[:cut], Digest: raw[cut:]}, nil
}

// HeaderSection returns the signed header region with its digest block.
func (h *Header) HeaderSection() Section {
	raw := append([]byte(nil), h.raw[:]...)
	return Section{Body: raw[:signedHeaderSize], Digest: raw[signedHeaderSize:]}
}

// ReadMetadata reads the metadata section located by h from r. fileSize bounds
// the read.
func (h *Header) ReadMetadata(r io.ReaderAt, fileSize int64) (Section, error) {
	end := uint64(h.MetaOffset) + uint64(h.MetaSize)
	if end > uint64(fileSize) {
		return Section{}, fmt.Errorf("%w: metadata [%#x, %#x) exceeds file size %#x",
			ErrSectionBounds, h.MetaOffset, end, fileSize)
	}
	buf := make([]byte, h.MetaSize)
	if _, err := r.ReadAt(buf, int64(h.MetaOffset)); err != nil {
		return Section{}, fmt.Errorf("failed to read metadata: %w", err)
	}
	return SplitSection(buf)
}
