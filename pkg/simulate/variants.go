package simulate

import (
	"fmt"
	"strings"

	"github.com/matzehuels/simpg/pkg/pangraph"
)

// Variant is one rvcf record: an alternative path between two reference
// segments that replaces the reference range Start..End.
type Variant struct {
	Start, End string
	Alt        pangraph.Walk
}

// String formats the record as "(start,end)\t(ref nodes)\t(alt nodes)".
func (v Variant) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "(%s,%s)\t(", v.Start, v.End)
	ref, _ := pangraph.LinearWalk(v.Start, v.End)
	writeNodes(&b, ref)
	b.WriteString(")\t(")
	writeNodes(&b, v.Alt)
	b.WriteString(")")
	return b.String()
}

func writeNodes(b *strings.Builder, w pangraph.Walk) {
	for i, n := range w {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(n.String())
	}
}

// ParseVariant parses a record written by Variant.String. Only the range
// and the alternative path are read back.
func ParseVariant(line string) (Variant, error) {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(fields) < 3 {
		return Variant{}, fmt.Errorf("expected 3 tab-separated fields, got %d", len(fields))
	}
	start, end, ok := strings.Cut(strings.Trim(fields[0], "()"), ",")
	if !ok {
		return Variant{}, fmt.Errorf("malformed range %q", fields[0])
	}
	var alt pangraph.Walk
	for _, s := range strings.Split(strings.Trim(fields[2], "()"), ",") {
		n, err := pangraph.ParseNode(s)
		if err != nil {
			return Variant{}, fmt.Errorf("alternative path: %w", err)
		}
		alt = append(alt, n)
	}
	return Variant{Start: start, End: end, Alt: alt}, nil
}

// splitAtReference cuts walk into pieces that start and end at reference
// nodes; consecutive pieces share their boundary node. A trailing piece
// that does not end at a reference node is kept as is.
func splitAtReference(walk pangraph.Walk, isRef func(pangraph.Node) bool) []pangraph.Walk {
	var pieces []pangraph.Walk
	start := 0
	for i, n := range walk {
		if isRef(n) {
			pieces = append(pieces, walk[start:i+1])
			start = i
		}
	}
	if start < len(walk)-1 {
		pieces = append(pieces, walk[start:])
	}
	return pieces
}

// inverted reports a piece whose end lies upstream of its start.
type inverted struct {
	piece      pangraph.Walk
	start, end int
}

// variantsOf returns the records for a walk between two core segments.
// Single nodes and direct steps to the next reference segment carry no
// variation. Pieces running backwards along the reference are returned
// separately.
func variantsOf(walk pangraph.Walk, isRef func(pangraph.Node) bool) ([]Variant, []inverted, error) {
	var out []Variant
	var skipped []inverted
	for _, p := range splitAtReference(walk, isRef) {
		first, last := p[0], p[len(p)-1]
		lo, err := pangraph.SegmentNumber(first.Segment)
		if err != nil {
			return nil, nil, err
		}
		hi, err := pangraph.SegmentNumber(last.Segment)
		if err != nil {
			return nil, nil, err
		}
		if len(p) == 1 || (len(p) == 2 && lo+1 == hi) {
			continue
		}
		if lo > hi {
			skipped = append(skipped, inverted{piece: p, start: lo, end: hi})
			continue
		}
		out = append(out, Variant{Start: first.Segment, End: last.Segment, Alt: p})
	}
	return out, skipped, nil
}
