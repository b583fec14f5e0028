package wal

import "testing"

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{Version: Version, SegmentID: 7}
	got, err := DecodeHeader(EncodeHeader(h))
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if got != h {
		t.Fatalf("got %+v, want %+v", got, h)
	}
}

func TestHeaderRejectsBadMagic(t *testing.T) {
	buf := EncodeHeader(Header{Version: Version, SegmentID: 1})
	buf[0] ^= 0xFF
	if _, err := DecodeHeader(buf); err == nil {
		t.Fatal("expected WrongFileFormat error")
	} else if le, ok := err.(*LogError); !ok || le.Kind != ErrWrongFileFormat {
		t.Fatalf("got %v, want WrongFileFormat", err)
	}
}

func TestHeaderTooSmall(t *testing.T) {
	if _, err := DecodeHeader(make([]byte, 10)); err == nil {
		t.Fatal("expected TooSmall error")
	} else if le, ok := err.(*LogError); !ok || le.Kind != ErrTooSmall {
		t.Fatalf("got %v, want TooSmall", err)
	}
}

func TestFooterRoundTrip(t *testing.T) {
	f := Footer{Sealed: true, FirstLSN: 1, LastLSN: 99, Checksum: 0xDEADBEEF}
	got, err := DecodeFooter(EncodeFooter(f))
	if err != nil {
		t.Fatalf("DecodeFooter: %v", err)
	}
	if got != f {
		t.Fatalf("got %+v, want %+v", got, f)
	}
}

func TestFooterUnsealedZeroFields(t *testing.T) {
	f := Footer{Sealed: false}
	got, err := DecodeFooter(EncodeFooter(f))
	if err != nil {
		t.Fatalf("DecodeFooter: %v", err)
	}
	if got.Sealed || got.LastLSN != 0 || got.Checksum != 0 {
		t.Fatalf("got %+v, want zeroed unsealed footer", got)
	}
}

func TestMidpointsRoundTrip(t *testing.T) {
	mps := []Midpoint{{LSN: 1, Offset: 0}, {LSN: 5, Offset: 128}}
	buf, err := EncodeMidpoints(mps)
	if err != nil {
		t.Fatalf("EncodeMidpoints: %v", err)
	}
	if len(buf) != MidpointSectionSize {
		t.Fatalf("section is %d bytes, want %d", len(buf), MidpointSectionSize)
	}
	got, err := DecodeMidpoints(buf)
	if err != nil {
		t.Fatalf("DecodeMidpoints: %v", err)
	}
	if len(got) != len(mps) || got[0] != mps[0] || got[1] != mps[1] {
		t.Fatalf("got %+v, want %+v", got, mps)
	}
}

func TestTooManyMidpointsRejected(t *testing.T) {
	mps := make([]Midpoint, MaxMidpoints+1)
	if _, err := EncodeMidpoints(mps); err == nil {
		t.Fatal("expected TooManyMidpoints error")
	} else if be, ok := err.(*BlockError); !ok || be.Kind != ErrTooManyMidpoints {
		t.Fatalf("got %v, want TooManyMidpoints", err)
	}
}

func TestSegmentAppendSealEncodeDecode(t *testing.T) {
	capacity := 4096
	seg := NewSegment(3, capacity)
	if err := seg.Append(Record{LSN: 1, Op: OpPut, Data: []byte("a")}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := seg.Append(Record{LSN: 2, Op: OpPut, Data: []byte("b")}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := seg.Seal(); err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if err := seg.Append(Record{LSN: 3, Op: OpPut, Data: []byte("c")}); err == nil {
		t.Fatal("expected append on sealed segment to fail")
	}

	encoded, err := seg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(encoded) <= HeaderSize+FooterSize+MidpointSectionSize {
		t.Fatalf("encoded len = %d, want more than the fixed sections alone", len(encoded))
	}

	decoded, err := DecodeSegment(encoded)
	if err != nil {
		t.Fatalf("DecodeSegment: %v", err)
	}
	if decoded.ID() != 3 || decoded.State() != StateSealed {
		t.Fatalf("got id=%d state=%v", decoded.ID(), decoded.State())
	}
	lastLSN, ok := decoded.LastLSN()
	if !ok || lastLSN != 2 {
		t.Fatalf("LastLSN() = (%d, %v), want (2, true)", lastLSN, ok)
	}

	rec, err := decoded.LookupLSN(1)
	if err != nil {
		t.Fatalf("LookupLSN: %v", err)
	}
	if string(rec.Data) != "a" {
		t.Fatalf("got data %q, want %q", rec.Data, "a")
	}
}

func TestUnsealedSegmentLastLSNSentinel(t *testing.T) {
	seg := NewSegment(0, 4096)
	if err := seg.Append(Record{LSN: 10, Op: OpPut, Data: []byte("x")}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	lastLSN, ok := seg.LastLSN()
	if ok {
		t.Fatal("expected ok=false while unsealed")
	}
	if lastLSN != ^uint64(0) {
		t.Fatalf("got %d, want sentinel ^uint64(0)", lastLSN)
	}
}

// TestWALTwoRecordMidpointScenario is spec scenario 7: two records
// written into a BlocksMut(limit=128) each become their own midpoint
// anchor, and Blocks::at each midpoint recovers the corresponding
// record.
func TestWALTwoRecordMidpointScenario(t *testing.T) {
	w := NewBlocksMut(128, 0, 0, nil)

	_, off1, err := WriteRecord(w, Record{LSN: 1, Op: OpPut, Data: []byte("Hello")})
	if err != nil {
		t.Fatalf("WriteRecord #1: %v", err)
	}
	_, off2, err := WriteRecord(w, Record{LSN: 2, Op: OpDelete, Data: []byte(", World!")})
	if err != nil {
		t.Fatalf("WriteRecord #2: %v", err)
	}

	mids := w.MidpointOffsets()
	if len(mids) != 2 || mids[0] != off1 || mids[1] != off2 {
		t.Fatalf("midpoint offsets = %v, want [%d %d]", mids, off1, off2)
	}

	cursor := NewBlocks(0, w.Bytes())

	at1, err := cursor.At(off1)
	if err != nil {
		t.Fatalf("At(off1): %v", err)
	}
	block1, err := at1.NextBlock()
	if err != nil {
		t.Fatalf("NextBlock #1: %v", err)
	}
	rec1, err := DecodeRecord(block1.Payload)
	if err != nil {
		t.Fatalf("DecodeRecord #1: %v", err)
	}
	if rec1.LSN != 1 || rec1.Op != OpPut || string(rec1.Data) != "Hello" {
		t.Fatalf("got %+v", rec1)
	}

	at2, err := cursor.At(off2)
	if err != nil {
		t.Fatalf("At(off2): %v", err)
	}
	block2, err := at2.NextBlock()
	if err != nil {
		t.Fatalf("NextBlock #2: %v", err)
	}
	rec2, err := DecodeRecord(block2.Payload)
	if err != nil {
		t.Fatalf("DecodeRecord #2: %v", err)
	}
	if rec2.LSN != 2 || rec2.Op != OpDelete || string(rec2.Data) != ", World!" {
		t.Fatalf("got %+v", rec2)
	}
}

func TestManagerRolloverOnOutOfSpace(t *testing.T) {
	m := NewManager(HeaderSize + FooterSize + MidpointSectionSize + 150)
	var lastSegment uint64
	for i := uint64(1); i <= 10; i++ {
		off, err := m.Append(Record{LSN: i, Op: OpPut, Data: []byte("payload-data")})
		if err != nil {
			t.Fatalf("Append lsn=%d: %v", i, err)
		}
		lastSegment = off.SegmentID()
	}
	if len(m.Segments()) < 2 {
		t.Fatalf("expected rollover to create more than one segment, got %d", len(m.Segments()))
	}
	if lastSegment == 0 && len(m.Segments()) > 1 {
		t.Fatalf("expected later appends to land in a later segment")
	}

	rec, err := m.Lookup(1)
	if err != nil {
		t.Fatalf("Lookup(1): %v", err)
	}
	if rec.LSN != 1 {
		t.Fatalf("got lsn %d, want 1", rec.LSN)
	}
}
