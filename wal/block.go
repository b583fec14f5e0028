package wal

import "encoding/binary"

// A block is the atomic framed unit of the blocks region: a u32 prefix
// length, a payload, and a trailing u32 suffix length, per spec.md
// §4.1. Reading the suffix length lets a reverse scan walk the region
// from its tail without a separate index.

const blockOverhead = 8 // 4-byte prefix length + 4-byte suffix length

// BlocksMut is the append-only writer over a blocks region, grounded on
// the teacher's ion.Buffer append-buffer-with-reserved-length-prefix
// pattern (Buffer/BeginStruct in ion/writer.go). Unlike ion.Buffer it
// exposes a strict open/write/finalize contract per block so that a
// caller cannot write more or less than it declared.
type BlocksMut struct {
	limit               int
	offset              int
	buf                 []byte
	lastMidpointOffset  int
	midFreq             int
	midpointOffsets     []int
	opened              bool
}

// NewBlocksMut constructs a writer over buf (already containing any
// previously-written blocks), where offset is the absolute stream
// position corresponding to buf's first byte and limit is the absolute
// position at which the blocks region ends.
func NewBlocksMut(limit, offset, lastMidpointOffset int, buf []byte) *BlocksMut {
	freq := limit / 10
	if freq <= 0 {
		freq = 1
	}
	return &BlocksMut{
		limit:              limit,
		offset:             offset,
		buf:                buf,
		lastMidpointOffset: lastMidpointOffset,
		midFreq:            freq,
	}
}

// current returns the absolute stream position of the next byte to be
// written.
func (w *BlocksMut) current() int { return w.offset + len(w.buf) }

// AvailableSpace returns how many bytes remain before limit is reached.
func (w *BlocksMut) AvailableSpace() int {
	remaining := w.limit - w.current()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Bytes returns the accumulated buffer contents, including every
// finalized block written so far.
func (w *BlocksMut) Bytes() []byte { return w.buf }

// MidpointOffsets returns the absolute offsets of blocks captured as
// midpoint anchors during writing, in ascending order.
func (w *BlocksMut) MidpointOffsets() []int { return w.midpointOffsets }

// Open reserves space for a block whose payload will be exactly need
// bytes, eagerly writing the prefix length. It fails with OutOfSpace if
// the region cannot fit need+blockOverhead more bytes, and refuses to
// open a second block before the first is finalized.
func (w *BlocksMut) Open(need int) (*OpenedBlock, error) {
	if w.opened {
		return nil, blockErrorf(ErrInvalidBlockFormat, "a block is already open")
	}
	total := need + blockOverhead
	if w.AvailableSpace() < total {
		return nil, blockErrorf(ErrOutOfSpace, "need %d bytes, have %d", total, w.AvailableSpace())
	}
	startAbs := w.current()
	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], uint32(need))
	w.buf = append(w.buf, prefix[:]...)
	w.opened = true
	return &OpenedBlock{parent: w, need: need, startAbs: startAbs}, nil
}

// OpenedBlock is an in-progress block write. Every byte declared at
// Open must be written exactly once before Finalize succeeds.
type OpenedBlock struct {
	parent   *BlocksMut
	need     int
	written  int
	startAbs int
}

// Need reports the declared payload size.
func (ob *OpenedBlock) Need() int { return ob.need }

// Written reports how many payload bytes have been written so far.
func (ob *OpenedBlock) Written() int { return ob.written }

func (ob *OpenedBlock) reserve(n int) error {
	if ob.written+n > ob.need {
		return blockErrorf(ErrWroteTooMuch, "declared %d bytes, tried to write %d more at offset %d", ob.need, n, ob.written)
	}
	return nil
}

// PutBytes appends data to the open block's payload.
func (ob *OpenedBlock) PutBytes(data []byte) error {
	if err := ob.reserve(len(data)); err != nil {
		return err
	}
	ob.parent.buf = append(ob.parent.buf, data...)
	ob.written += len(data)
	return nil
}

// PutUint8 appends a single byte.
func (ob *OpenedBlock) PutUint8(v uint8) error {
	return ob.PutBytes([]byte{v})
}

// PutUint16 appends v little-endian.
func (ob *OpenedBlock) PutUint16(v uint16) error {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	return ob.PutBytes(tmp[:])
}

// PutUint32 appends v little-endian.
func (ob *OpenedBlock) PutUint32(v uint32) error {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return ob.PutBytes(tmp[:])
}

// PutUint64 appends v little-endian.
func (ob *OpenedBlock) PutUint64(v uint64) error {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return ob.PutBytes(tmp[:])
}

// Zeroes appends n zero bytes, for padding out a declared payload size.
func (ob *OpenedBlock) Zeroes(n int) error {
	if n < 0 {
		return blockErrorf(ErrInvalidBlockFormat, "negative zero-fill length %d", n)
	}
	return ob.PutBytes(make([]byte, n))
}

// Finalize closes the open block, writing the trailing suffix length.
// It fails with WroteTooLittle if fewer than the declared bytes were
// written. On success it reports whether this block's start offset was
// captured as a new midpoint anchor, and the block's absolute start
// offset.
func (ob *OpenedBlock) Finalize() (isMidpoint bool, blockOffset int, err error) {
	if ob.written < ob.need {
		return false, 0, blockErrorf(ErrWroteTooLittle, "declared %d bytes, wrote %d", ob.need, ob.written)
	}
	w := ob.parent
	var suffix [4]byte
	binary.LittleEndian.PutUint32(suffix[:], uint32(ob.need))
	w.buf = append(w.buf, suffix[:]...)
	w.opened = false

	after := w.current()
	if after-w.lastMidpointOffset > w.midFreq {
		w.midpointOffsets = append(w.midpointOffsets, ob.startAbs)
		w.lastMidpointOffset = after
		isMidpoint = true
	}
	return isMidpoint, ob.startAbs, nil
}

// Block is a single decoded frame from a blocks region: its absolute
// start offset and its payload bytes.
type Block struct {
	Offset  int
	Payload []byte
}

// Blocks is a forward-reading cursor over an already-written blocks
// region.
type Blocks struct {
	base int
	buf  []byte
	pos  int
}

// NewBlocks constructs a cursor over buf, whose first byte corresponds
// to absolute offset startOffset.
func NewBlocks(startOffset int, buf []byte) *Blocks {
	return &Blocks{base: startOffset, buf: buf}
}

// NextBlock decodes the next frame and advances the cursor. It returns
// (nil, nil) when fewer than 4 bytes remain, per spec.md §4.1 — too
// little to even hold a prefix length, not a format error.
func (r *Blocks) NextBlock() (*Block, error) {
	if len(r.buf)-r.pos < 4 {
		return nil, nil
	}
	prefix := binary.LittleEndian.Uint32(r.buf[r.pos : r.pos+4])
	payloadStart := r.pos + 4
	need := int(prefix) + 4
	if len(r.buf)-payloadStart < need {
		return nil, blockErrorf(ErrNotEnoughDataLeft, "block at offset %d declares %d bytes, %d remain", r.base+r.pos, prefix, len(r.buf)-payloadStart)
	}
	payloadEnd := payloadStart + int(prefix)
	suffix := binary.LittleEndian.Uint32(r.buf[payloadEnd : payloadEnd+4])
	if suffix != prefix {
		return nil, blockErrorf(ErrInvalidBlockFormat, "prefix/suffix length mismatch at offset %d: %d != %d", r.base+r.pos, prefix, suffix)
	}
	blockOffset := r.base + r.pos
	payload := make([]byte, prefix)
	copy(payload, r.buf[payloadStart:payloadEnd])
	r.pos = payloadEnd + 4
	return &Block{Offset: blockOffset, Payload: payload}, nil
}

// At returns a new cursor positioned at the given absolute offset,
// which must fall within this cursor's underlying buffer.
func (r *Blocks) At(offset int) (*Blocks, error) {
	rel := offset - r.base
	if rel < 0 || rel > len(r.buf) {
		return nil, blockErrorf(ErrOffsetOutOfBound, "offset %d outside region [%d, %d]", offset, r.base, r.base+len(r.buf))
	}
	return &Blocks{base: r.base, buf: r.buf, pos: rel}, nil
}
