package wal

import "testing"

func TestRecordRoundTrip(t *testing.T) {
	w := NewBlocksMut(1<<20, 0, 0, nil)
	rec := Record{LSN: 42, Op: OpPut, ContentType: 1, Data: []byte("hello")}
	if _, _, err := WriteRecord(w, rec); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}

	r := NewBlocks(0, w.Bytes())
	block, err := r.NextBlock()
	if err != nil {
		t.Fatalf("NextBlock: %v", err)
	}
	got, err := DecodeRecord(block.Payload)
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	if got.LSN != rec.LSN || got.Op != rec.Op || got.ContentType != rec.ContentType || string(got.Data) != string(rec.Data) {
		t.Fatalf("got %+v, want %+v", got, rec)
	}
}

func TestRecordChecksumMismatch(t *testing.T) {
	w := NewBlocksMut(1<<20, 0, 0, nil)
	rec := Record{LSN: 1, Op: OpPut, ContentType: 0, Data: []byte("x")}
	if _, _, err := WriteRecord(w, rec); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}
	r := NewBlocks(0, w.Bytes())
	block, err := r.NextBlock()
	if err != nil {
		t.Fatalf("NextBlock: %v", err)
	}
	corrupted := append([]byte(nil), block.Payload...)
	corrupted[len(corrupted)-1] ^= 0xFF
	if _, err := DecodeRecord(corrupted); err == nil {
		t.Fatal("expected ChecksumMismatch error")
	} else if le, ok := err.(*LogError); !ok || le.Kind != ErrChecksumMismatch {
		t.Fatalf("got %v, want ChecksumMismatch", err)
	}
}

func TestRecordTooSmall(t *testing.T) {
	if _, err := DecodeRecord([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected TooSmall error")
	} else if le, ok := err.(*LogError); !ok || le.Kind != ErrTooSmall {
		t.Fatalf("got %v, want TooSmall", err)
	}
}

func TestRecordLengthMismatch(t *testing.T) {
	rec := Record{LSN: 1, Op: OpPut, ContentType: 0, Data: []byte("abcd")}
	payload := rec.encode()
	truncated := payload[:len(payload)-2]
	if _, err := DecodeRecord(truncated); err == nil {
		t.Fatal("expected LengthMismatch error")
	} else if le, ok := err.(*LogError); !ok || le.Kind != ErrLengthMismatch {
		t.Fatalf("got %v, want LengthMismatch", err)
	}
}
