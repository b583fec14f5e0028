package wal

// LogOffset addresses a single record: an opaque u64 packing
// `(segment_id << 32) | block_offset_in_segment`, per spec.md §3/§6.
type LogOffset uint64

// newLogOffset packs a segment ID and within-segment block offset into
// a LogOffset.
func newLogOffset(segmentID uint64, offset uint32) LogOffset {
	return LogOffset(segmentID<<32 | uint64(offset))
}

// SegmentID unpacks the segment component of the offset.
func (o LogOffset) SegmentID() uint64 { return uint64(o) >> 32 }

// Offset unpacks the within-segment block offset component.
func (o LogOffset) Offset() uint32 { return uint32(o) }

// Manager owns an ordered sequence of segments and rolls appends over
// to a fresh segment when the current one runs out of space, per
// spec.md §4.1's "segment rollover on OutOfSpace".
type Manager struct {
	capacity int
	segments []*Segment
	nextID   uint64
}

// NewManager creates a Manager whose segments are each capped at
// capacity bytes. A capacity above SegmentSizeCap is clamped down.
func NewManager(capacity int) *Manager {
	if capacity > SegmentSizeCap {
		capacity = SegmentSizeCap
	}
	return &Manager{capacity: capacity}
}

func (m *Manager) current() *Segment {
	if len(m.segments) == 0 {
		return nil
	}
	return m.segments[len(m.segments)-1]
}

func (m *Manager) openNewSegment() *Segment {
	seg := NewSegment(m.nextID, m.capacity)
	m.nextID++
	m.segments = append(m.segments, seg)
	return seg
}

// Append writes rec to the current open segment, sealing it and
// rolling over to a new one if it has run out of space.
func (m *Manager) Append(rec Record) (LogOffset, error) {
	seg := m.current()
	if seg == nil {
		seg = m.openNewSegment()
	}
	offset, err := writeToSegment(seg, rec)
	if err != nil {
		if be, ok := err.(*BlockError); ok && be.Kind == ErrOutOfSpace {
			if _, sealErr := seg.Seal(); sealErr != nil {
				return 0, sealErr
			}
			seg = m.openNewSegment()
			offset, err = writeToSegment(seg, rec)
			if err != nil {
				return 0, err
			}
		} else {
			return 0, err
		}
	}
	return newLogOffset(seg.ID(), uint32(offset)), nil
}

// writeToSegment appends rec and reports the absolute block offset it
// landed at within the segment's blocks region.
func writeToSegment(seg *Segment, rec Record) (offset int, err error) {
	before := len(seg.writer.Bytes())
	if err := seg.Append(rec); err != nil {
		return 0, err
	}
	return before, nil
}

// Segments returns the managed segments in creation order. The last
// one may still be Unsealed.
func (m *Manager) Segments() []*Segment { return m.segments }

// Lookup finds the record with the given LSN by scanning segments
// whose LSN range could contain it, preferring sealed segments' exact
// [FirstLSN, LastLSN] bounds to skip segments; the still-open segment
// is always searched. Each searched segment is walked forward from its
// nearest midpoint at or before lsn.
func (m *Manager) Lookup(lsn uint64) (Record, error) {
	for _, seg := range m.segments {
		if seg.State() == StateSealed {
			if lsn < seg.firstLSN || lsn > seg.lastLSN {
				continue
			}
		}
		rec, err := seg.LookupLSN(lsn)
		if err == nil {
			return rec, nil
		}
		if le, ok := err.(*LogError); !ok || le.Kind != ErrSegmentCorrupted {
			return Record{}, err
		}
	}
	return Record{}, logErrorf(ErrSegmentCorrupted, "lsn %d not found in any segment", lsn)
}
