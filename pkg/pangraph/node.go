package pangraph

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	simpgerrors "github.com/matzehuels/simpg/pkg/errors"
)

var (
	// ErrInvalidStrand is returned by [ParseStrand] and [ParseNode] for any
	// orientation other than "+" or "-".
	ErrInvalidStrand = errors.New("invalid strand")

	// ErrInvalidSegmentID is returned by [SegmentNumber] when the identifier
	// has no numeric suffix.
	ErrInvalidSegmentID = errors.New("invalid segment ID")
)

// Strand is the orientation of a segment inside the graph.
type Strand byte

const (
	// Forward is the segment as written in the sequence file.
	Forward Strand = '+'
	// Reverse is the reverse complement of the segment.
	Reverse Strand = '-'
)

// ParseStrand converts "+" or "-" into a Strand.
func ParseStrand(s string) (Strand, error) {
	switch s {
	case "+":
		return Forward, nil
	case "-":
		return Reverse, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidStrand, s)
}

// Flip returns the opposite orientation.
func (s Strand) Flip() Strand {
	if s == Forward {
		return Reverse
	}
	return Forward
}

func (s Strand) String() string { return string(s) }

// Node is an oriented segment. The forward and reverse orientation of the
// same segment are distinct vertices.
type Node struct {
	Segment string
	Strand  Strand
}

// Fwd returns the forward-strand node for segment id.
func Fwd(id string) Node { return Node{Segment: id, Strand: Forward} }

// Rev returns the reverse-strand node for segment id.
func Rev(id string) Node { return Node{Segment: id, Strand: Reverse} }

// Flip returns the same segment in the opposite orientation.
func (n Node) Flip() Node { return Node{Segment: n.Segment, Strand: n.Strand.Flip()} }

// String renders the node as "<segment><strand>", e.g. "s12+".
func (n Node) String() string { return n.Segment + string(n.Strand) }

// ParseNode is the inverse of [Node.String].
func ParseNode(s string) (Node, error) {
	if len(s) < 2 {
		return Node{}, fmt.Errorf("%w: %q", ErrInvalidStrand, s)
	}
	strand, err := ParseStrand(s[len(s)-1:])
	if err != nil {
		return Node{}, err
	}
	return Node{Segment: s[:len(s)-1], Strand: strand}, nil
}

// Walk is an ordered traversal of oriented nodes.
type Walk []Node

// String renders the walk as a comma separated node list.
func (w Walk) String() string {
	parts := make([]string, len(w))
	for i, n := range w {
		parts[i] = n.String()
	}
	return strings.Join(parts, ",")
}

// SegmentNumber returns the integer suffix of a segment identifier such as
// "s1042". Identifiers are ordered along the linear reference by this number.
func SegmentNumber(id string) (int, error) {
	_, n, err := splitID(id)
	return n, err
}

func splitID(id string) (string, int, error) {
	i := len(id)
	for i > 0 && id[i-1] >= '0' && id[i-1] <= '9' {
		i--
	}
	if i == len(id) {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidSegmentID, id)
	}
	n, err := strconv.Atoi(id[i:])
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidSegmentID, id)
	}
	return id[:i], n, nil
}

// LinearRange expands the inclusive identifier range first..last using the
// prefix of first, so LinearRange("s3", "s5") yields s3, s4, s5.
// A range whose last identifier precedes first is rejected with
// [simpgerrors.ErrCodeInvalidInput].
func LinearRange(first, last string) ([]string, error) {
	prefix, lo, err := splitID(first)
	if err != nil {
		return nil, err
	}
	hi, err := SegmentNumber(last)
	if err != nil {
		return nil, err
	}
	if hi < lo {
		return nil, simpgerrors.New(simpgerrors.ErrCodeInvalidInput, "reversed segment range %s..%s", first, last)
	}
	ids := make([]string, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		ids = append(ids, prefix+strconv.Itoa(i))
	}
	return ids, nil
}

// LinearWalk is [LinearRange] mapped onto forward-strand nodes.
func LinearWalk(first, last string) (Walk, error) {
	ids, err := LinearRange(first, last)
	if err != nil {
		return nil, err
	}
	w := make(Walk, len(ids))
	for i, id := range ids {
		w[i] = Fwd(id)
	}
	return w, nil
}
