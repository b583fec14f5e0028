package wal

import (
	"encoding/binary"
	"hash/crc32"
)

// Op distinguishes the kind of mutation a record represents.
type Op uint8

const (
	OpPut Op = iota
	OpDelete
)

func (o Op) String() string {
	if o == OpDelete {
		return "Delete"
	}
	return "Put"
}

// recordFixedSize is the byte size of a record's fixed-width header
// fields: u64 lsn, u8 op, u8 content_type, u16 data_len.
const recordFixedSize = 8 + 1 + 1 + 2

// recordMinSize is the smallest possible encoded record: the fixed
// header, zero bytes of data, and the trailing u32 CRC-32.
const recordMinSize = recordFixedSize + 4

// Record is a single log entry: a monotonically increasing log
// sequence number, an operation kind, an opaque content-type tag for
// the embedding application, and the payload bytes.
type Record struct {
	LSN         uint64
	Op          Op
	ContentType uint8
	Data        []byte
}

// encode renders a record to its on-disk payload encoding (spec.md
// §4.1's "payload encoding for log records"): the fixed header, the
// data, and a trailing CRC-32 over everything preceding it.
func (r Record) encode() []byte {
	body := make([]byte, recordFixedSize, recordFixedSize+len(r.Data)+4)
	binary.LittleEndian.PutUint64(body[0:8], r.LSN)
	body[8] = byte(r.Op)
	body[9] = r.ContentType
	binary.LittleEndian.PutUint16(body[10:12], uint16(len(r.Data)))
	body = append(body, r.Data...)
	crc := crc32.ChecksumIEEE(body)
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], crc)
	return append(body, tmp[:]...)
}

// WriteRecord encodes rec and writes it as a single block into w,
// returning whether the block was captured as a midpoint and its
// absolute start offset, per spec.md §4.1.
func WriteRecord(w *BlocksMut, rec Record) (isMidpoint bool, blockOffset int, err error) {
	body := rec.encode()
	ob, err := w.Open(len(body))
	if err != nil {
		return false, 0, err
	}
	if err := ob.PutBytes(body); err != nil {
		return false, 0, err
	}
	return ob.Finalize()
}

// DecodeRecord parses a block's payload back into a Record, validating
// its internal length field and CRC-32 checksum.
func DecodeRecord(payload []byte) (Record, error) {
	if len(payload) < recordMinSize {
		return Record{}, logErrorf(ErrTooSmall, "record payload is %d bytes, need at least %d", len(payload), recordMinSize)
	}
	lsn := binary.LittleEndian.Uint64(payload[0:8])
	op := Op(payload[8])
	contentType := payload[9]
	dataLen := int(binary.LittleEndian.Uint16(payload[10:12]))

	dataStart := recordFixedSize
	dataEnd := dataStart + dataLen
	if dataEnd+4 != len(payload) {
		return Record{}, logErrorf(ErrLengthMismatch, "declared data_len %d does not match payload size %d", dataLen, len(payload))
	}

	gotCRC := binary.LittleEndian.Uint32(payload[dataEnd : dataEnd+4])
	wantCRC := crc32.ChecksumIEEE(payload[:dataEnd])
	if gotCRC != wantCRC {
		return Record{}, logErrorf(ErrChecksumMismatch, "record lsn=%d: computed crc32 %#x, stored %#x", lsn, wantCRC, gotCRC)
	}

	data := make([]byte, dataLen)
	copy(data, payload[dataStart:dataEnd])
	return Record{LSN: lsn, Op: op, ContentType: contentType, Data: data}, nil
}
