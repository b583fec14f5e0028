package wal

import (
	"encoding/binary"
	"hash/crc32"
)

const (
	// Magic identifies a well-formed segment file, per spec.md §4.1.
	Magic uint32 = 0x57414C00
	// Version is the current on-disk format version.
	Version uint16 = 0x0001

	// HeaderSize, FooterSize, and MidpointSectionSize are the three
	// fixed-size regions bracketing every segment's variable-length
	// blocks region.
	HeaderSize          = 128
	FooterSize          = 128
	MidpointSectionSize = 128

	midpointEntrySize = 12 // u64 lsn + u32 offset
	// MaxMidpoints is how many midpoint entries fit in one
	// MidpointSectionSize section (128 bytes = 10*12 + 2 count + 6 pad).
	MaxMidpoints = 10

	// SegmentSizeCap is the maximum total size of one segment file.
	SegmentSizeCap = 256 * 1024 * 1024
)

// Header is the fixed-size region at the start of a segment.
type Header struct {
	Version   uint16
	SegmentID uint64
}

// EncodeHeader renders h to its fixed HeaderSize-byte encoding.
func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	binary.LittleEndian.PutUint64(buf[6:14], h.SegmentID)
	return buf
}

// DecodeHeader parses a segment header, rejecting undersized buffers
// and a bad magic number.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, logErrorf(ErrTooSmall, "header is %d bytes, need %d", len(buf), HeaderSize)
	}
	if magic := binary.LittleEndian.Uint32(buf[0:4]); magic != Magic {
		return Header{}, logErrorf(ErrWrongFileFormat, "bad magic %#x", magic)
	}
	return Header{
		Version:   binary.LittleEndian.Uint16(buf[4:6]),
		SegmentID: binary.LittleEndian.Uint64(buf[6:14]),
	}, nil
}

// Footer is the fixed-size region at the end of a segment, recording
// whether the segment has been sealed and, once sealed, its LSN range
// and an integrity checksum over the blocks region.
type Footer struct {
	Sealed   bool
	FirstLSN uint64
	LastLSN  uint64
	Checksum uint32
}

// EncodeFooter renders f to its fixed FooterSize-byte encoding.
func EncodeFooter(f Footer) []byte {
	buf := make([]byte, FooterSize)
	binary.LittleEndian.PutUint32(buf[0:4], Magic)
	if f.Sealed {
		buf[4] = 1
	}
	binary.LittleEndian.PutUint64(buf[5:13], f.FirstLSN)
	binary.LittleEndian.PutUint64(buf[13:21], f.LastLSN)
	binary.LittleEndian.PutUint32(buf[FooterSize-4:FooterSize], f.Checksum)
	return buf
}

// DecodeFooter parses a segment footer.
func DecodeFooter(buf []byte) (Footer, error) {
	if len(buf) < FooterSize {
		return Footer{}, logErrorf(ErrTooSmall, "footer is %d bytes, need %d", len(buf), FooterSize)
	}
	if magic := binary.LittleEndian.Uint32(buf[0:4]); magic != Magic {
		return Footer{}, logErrorf(ErrWrongFileFormat, "bad magic %#x", magic)
	}
	sealedByte := buf[4]
	if sealedByte != 0 && sealedByte != 1 {
		return Footer{}, logErrorf(ErrWrongFileFormat, "sealed byte is %#x, want 0x00 or 0x01", sealedByte)
	}
	return Footer{
		Sealed:   sealedByte == 1,
		FirstLSN: binary.LittleEndian.Uint64(buf[5:13]),
		LastLSN:  binary.LittleEndian.Uint64(buf[13:21]),
		Checksum: binary.LittleEndian.Uint32(buf[FooterSize-4 : FooterSize]),
	}, nil
}

// Midpoint pairs a sparse-index anchor's log sequence number with the
// absolute byte offset of the block it begins, per spec.md §3.
type Midpoint struct {
	LSN    uint64
	Offset uint32
}

// EncodeMidpoints renders up to MaxMidpoints entries into one
// fixed-size MidpointSectionSize-byte section. The entry count is
// stored as a u16 at offset MidpointSectionSize-2.
func EncodeMidpoints(mps []Midpoint) ([]byte, error) {
	if len(mps) > MaxMidpoints {
		return nil, blockErrorf(ErrTooManyMidpoints, "%d midpoints exceeds maximum of %d", len(mps), MaxMidpoints)
	}
	buf := make([]byte, MidpointSectionSize)
	for i, mp := range mps {
		off := i * midpointEntrySize
		binary.LittleEndian.PutUint64(buf[off:off+8], mp.LSN)
		binary.LittleEndian.PutUint32(buf[off+8:off+12], mp.Offset)
	}
	binary.LittleEndian.PutUint16(buf[MidpointSectionSize-2:], uint16(len(mps)))
	return buf, nil
}

// DecodeMidpoints parses a midpoint section written by EncodeMidpoints.
func DecodeMidpoints(buf []byte) ([]Midpoint, error) {
	if len(buf) < MidpointSectionSize {
		return nil, logErrorf(ErrTooSmall, "midpoint section is %d bytes, need %d", len(buf), MidpointSectionSize)
	}
	count := int(binary.LittleEndian.Uint16(buf[MidpointSectionSize-2:]))
	if count > MaxMidpoints {
		return nil, wrapBlockError(blockErrorf(ErrTooManyMidpoints, "stored count %d exceeds maximum of %d", count, MaxMidpoints))
	}
	mps := make([]Midpoint, count)
	for i := range mps {
		off := i * midpointEntrySize
		mps[i] = Midpoint{
			LSN:    binary.LittleEndian.Uint64(buf[off : off+8]),
			Offset: binary.LittleEndian.Uint32(buf[off+8 : off+12]),
		}
	}
	return mps, nil
}

// blocksRegionSize is how much of a capacity-byte segment remains for
// the blocks region once the three fixed sections are subtracted.
func blocksRegionSize(capacity int) int {
	return capacity - HeaderSize - FooterSize - MidpointSectionSize
}

// SegmentState is the Unsealed/Sealed state machine of spec.md §4.1: a
// segment accepts appends only while Unsealed, and becomes permanently
// read-only once Sealed.
type SegmentState uint8

const (
	StateUnsealed SegmentState = iota
	StateSealed
)

// Segment owns one segment's header, writer, and midpoint table. It
// starts Unsealed and accepts Append calls until it runs out of space
// or is explicitly Sealed.
type Segment struct {
	id          uint64
	state       SegmentState
	hasAppended bool
	firstLSN    uint64
	lastLSN     uint64
	writer      *BlocksMut
	midpoints   []Midpoint
}

// NewSegment creates a fresh, empty, Unsealed segment with room for
// capacity total bytes once sealed (header + blocks + midpoints +
// footer).
func NewSegment(id uint64, capacity int) *Segment {
	region := blocksRegionSize(capacity)
	return &Segment{
		id:     id,
		state:  StateUnsealed,
		writer: NewBlocksMut(region, 0, 0, nil),
	}
}

// ID returns the segment's identifier.
func (s *Segment) ID() uint64 { return s.id }

// State reports whether the segment is still accepting appends.
func (s *Segment) State() SegmentState { return s.state }

// LastLSN reports the most recently appended LSN. Per spec.md's
// resolution of the unsealed-segment lookup question, it returns the
// sentinel value ^uint64(0) together with false while the segment is
// unsealed or empty, since an in-progress segment has no stable upper
// bound a reader can rely on.
func (s *Segment) LastLSN() (uint64, bool) {
	if s.state != StateSealed || !s.hasAppended {
		return ^uint64(0), false
	}
	return s.lastLSN, true
}

// Append encodes and writes one record into the segment's blocks
// region. It returns an *BlockError with Kind ErrOutOfSpace when the
// segment has no room left; the caller is expected to Seal this
// segment and route subsequent appends to a new one.
func (s *Segment) Append(rec Record) error {
	if s.state != StateUnsealed {
		return logErrorf(ErrSegmentCorrupted, "segment %d is sealed", s.id)
	}
	isMidpoint, offset, err := WriteRecord(s.writer, rec)
	if err != nil {
		return err
	}
	if isMidpoint {
		s.midpoints = append(s.midpoints, Midpoint{LSN: rec.LSN, Offset: uint32(offset)})
	}
	if !s.hasAppended {
		s.firstLSN = rec.LSN
		s.hasAppended = true
	}
	s.lastLSN = rec.LSN
	return nil
}

// Seal stops further appends and computes the segment's footer. The
// footer's checksum covers the final blocks-region bytes, giving
// readers an integrity check independent of the per-record CRC-32s.
func (s *Segment) Seal() (Footer, error) {
	if s.state == StateSealed {
		return Footer{}, logErrorf(ErrSegmentCorrupted, "segment %d already sealed", s.id)
	}
	if _, err := EncodeMidpoints(s.midpoints); err != nil {
		return Footer{}, err
	}
	s.state = StateSealed
	footer := Footer{
		Sealed:   true,
		FirstLSN: s.firstLSN,
		LastLSN:  s.lastLSN,
		Checksum: crc32.ChecksumIEEE(s.writer.Bytes()),
	}
	return footer, nil
}

// Midpoints returns the midpoint table captured so far, in ascending
// offset order.
func (s *Segment) Midpoints() []Midpoint { return s.midpoints }

// Blocks returns a read cursor over the segment's blocks region as
// written so far.
func (s *Segment) Blocks() *Blocks {
	return NewBlocks(0, s.writer.Bytes())
}

// Encode serializes the segment: header, blocks region, midpoint
// section, footer. The segment must already be Sealed. Unlike the
// allotted per-segment capacity (which only bounds how many bytes of
// blocks may ever be written), the encoded blocks region holds exactly
// the bytes written — no trailing padding — since a padded region of
// zero bytes would parse as a spurious zero-length block under
// next_block's prefix/suffix framing.
func (s *Segment) Encode() ([]byte, error) {
	if s.state != StateSealed {
		return nil, logErrorf(ErrSegmentCorrupted, "segment %d must be sealed before encoding", s.id)
	}
	footer := Footer{
		Sealed:   true,
		FirstLSN: s.firstLSN,
		LastLSN:  s.lastLSN,
		Checksum: crc32.ChecksumIEEE(s.writer.Bytes()),
	}
	mpBuf, err := EncodeMidpoints(s.midpoints)
	if err != nil {
		return nil, err
	}

	blocks := s.writer.Bytes()
	out := make([]byte, 0, HeaderSize+len(blocks)+MidpointSectionSize+FooterSize)
	out = append(out, EncodeHeader(Header{Version: Version, SegmentID: s.id})...)
	out = append(out, blocks...)
	out = append(out, mpBuf...)
	out = append(out, EncodeFooter(footer)...)
	return out, nil
}

// DecodeSegment parses a full segment previously written by Encode.
func DecodeSegment(buf []byte) (*Segment, error) {
	if len(buf) < HeaderSize+FooterSize+MidpointSectionSize {
		return nil, logErrorf(ErrTooSmall, "segment is %d bytes, too small to contain fixed sections", len(buf))
	}
	header, err := DecodeHeader(buf[:HeaderSize])
	if err != nil {
		return nil, err
	}
	footerStart := len(buf) - FooterSize
	footer, err := DecodeFooter(buf[footerStart:])
	if err != nil {
		return nil, err
	}
	mpStart := footerStart - MidpointSectionSize
	midpoints, err := DecodeMidpoints(buf[mpStart:footerStart])
	if err != nil {
		return nil, err
	}
	blocksBuf := buf[HeaderSize:mpStart]
	if footer.Sealed {
		if got := crc32.ChecksumIEEE(blocksBuf); got != footer.Checksum {
			return nil, logErrorf(ErrChecksumMismatch, "segment %d: computed crc32 %#x, stored %#x", header.SegmentID, got, footer.Checksum)
		}
	}

	state := StateUnsealed
	if footer.Sealed {
		state = StateSealed
	}
	region := len(blocksBuf)
	writerBuf := make([]byte, len(blocksBuf))
	copy(writerBuf, blocksBuf)
	return &Segment{
		id:          header.SegmentID,
		state:       state,
		hasAppended: footer.Sealed || len(midpoints) > 0,
		firstLSN:    footer.FirstLSN,
		lastLSN:     footer.LastLSN,
		writer:      NewBlocksMut(region, 0, 0, writerBuf),
		midpoints:   midpoints,
	}, nil
}

// LookupLSN scans the midpoint table for the closest anchor at or
// before target, then walks forward block by block to locate the exact
// record, per spec.md §4.1's "random access via the midpoint index".
func (s *Segment) LookupLSN(target uint64) (Record, error) {
	startOffset := 0
	for _, mp := range s.midpoints {
		if mp.LSN <= target {
			startOffset = int(mp.Offset)
		} else {
			break
		}
	}
	cur, err := s.Blocks().At(startOffset)
	if err != nil {
		return Record{}, err
	}
	for {
		block, err := cur.NextBlock()
		if err != nil {
			return Record{}, err
		}
		if block == nil {
			return Record{}, logErrorf(ErrSegmentCorrupted, "lsn %d not found in segment %d", target, s.id)
		}
		rec, err := DecodeRecord(block.Payload)
		if err != nil {
			return Record{}, err
		}
		if rec.LSN == target {
			return rec, nil
		}
	}
}
