package worksession

import (
	"fmt"
	"time"
)

// DeriveStatus reads the status off the shape of the segment list.
func DeriveStatus(segments []Segment) string {
	if len(segments) == 0 {
		return StatusNotStarted
	}
	last := segments[len(segments)-1]
	switch {
	case !last.Open():
		return StatusEnded
	case last.Type == SegmentBreak:
		return StatusOnBreak
	default:
		return StatusWorking
	}
}

// Durations sums closed segments in whole seconds.
func Durations(segments []Segment) (work, breaks int) {
	for _, s := range segments {
		if s.Open() {
			continue
		}
		seconds := int(s.EndAt.Sub(s.StartAt) / time.Second)
		if s.Type == SegmentBreak {
			breaks += seconds
		} else {
			work += seconds
		}
	}
	return work, breaks
}

// appendSegment closes whatever segment is open at next.StartAt before
// appending next.
func appendSegment(segments []Segment, next Segment) []Segment {
	return append(closeOpen(segments, next.StartAt), next)
}

func closeOpen(segments []Segment, at time.Time) []Segment {
	out := append([]Segment(nil), segments...)
	for i := range out {
		if out[i].Open() {
			end := at
			if end.Before(out[i].StartAt) {
				end = out[i].StartAt
			}
			out[i].EndAt = &end
		}
	}
	return out
}

func validBreakType(value string) bool {
	switch value {
	case "", BreakShort, BreakLong, BreakLunch:
		return true
	}
	return false
}

// ValidateSegments checks a caller supplied list: ordered, non overlapping,
// and open only at the tail.
func ValidateSegments(segments []Segment) error {
	for i, s := range segments {
		if s.Type != SegmentWork && s.Type != SegmentBreak {
			return fmt.Errorf("%w: segment %d has type %q", ErrInvalidSegments, i, s.Type)
		}
		if s.StartAt.IsZero() {
			return fmt.Errorf("%w: segment %d has no start", ErrInvalidSegments, i)
		}
		if s.Type == SegmentWork && s.BreakType != "" {
			return fmt.Errorf("%w: work segment %d carries a break type", ErrInvalidSegments, i)
		}
		if !validBreakType(s.BreakType) {
			return fmt.Errorf("%w: segment %d: %v", ErrInvalidSegments, i, ErrInvalidBreakType)
		}
		if s.Open() {
			if i != len(segments)-1 {
				return fmt.Errorf("%w: segment %d is open but not last", ErrInvalidSegments, i)
			}
			continue
		}
		if s.EndAt.Before(s.StartAt) {
			return fmt.Errorf("%w: segment %d ends before it starts", ErrInvalidSegments, i)
		}
		if i+1 < len(segments) && segments[i+1].StartAt.Before(*s.EndAt) {
			return fmt.Errorf("%w: segment %d overlaps the next one", ErrInvalidSegments, i)
		}
	}
	return nil
}

// derive fills the computed fields of s from its segments.
func derive(s *Session) {
	if s.Segments == nil {
		s.Segments = []Segment{}
	}
	s.Status = DeriveStatus(s.Segments)
	s.TotalDuration, s.BreakDuration = Durations(s.Segments)
	s.StartTime, s.EndTime = nil, nil
	if len(s.Segments) > 0 {
		start := s.Segments[0].StartAt
		s.StartTime = &start
		if s.Status == StatusEnded {
			end := *s.Segments[len(s.Segments)-1].EndAt
			s.EndTime = &end
		}
	}
}
