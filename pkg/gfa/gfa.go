// Package gfa reads the segment and link records of an rGFA file.
//
// Only S and L lines are interpreted; every other record type is skipped.
// Segments must carry an SN:Z tag of the form sample#haplotype#chromosome
// and an SR:i rank tag; links carry an SR:i tag. Tags are located by name,
// so optional tags may appear in any order.
package gfa

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"

	"github.com/matzehuels/simpg/pkg/errors"
	simpgio "github.com/matzehuels/simpg/pkg/io"
	"github.com/matzehuels/simpg/pkg/pangraph"
)

// Segment is one S record.
type Segment struct {
	ID         string
	Sequence   string
	Sample     string
	Haplotype  int
	Chromosome string
	Rank       int
}

// Link is one L record.
type Link struct {
	From       string
	FromStrand pangraph.Strand
	To         string
	ToStrand   pangraph.Strand
	Rank       int
}

// Table holds the parsed segments, in file order, and links.
type Table struct {
	order    []string
	segments map[string]*Segment
	links    []Link
}

// NewTable returns an empty table. Use Add and AddLink to fill it by hand.
func NewTable() *Table {
	return &Table{segments: make(map[string]*Segment)}
}

// Add inserts or replaces a segment.
func (t *Table) Add(s Segment) {
	if _, ok := t.segments[s.ID]; !ok {
		t.order = append(t.order, s.ID)
	}
	t.segments[s.ID] = &s
}

// AddLink appends a link.
func (t *Table) AddLink(l Link) { t.links = append(t.links, l) }

// Len returns the number of segments.
func (t *Table) Len() int { return len(t.order) }

// LinkCount returns the number of links.
func (t *Table) LinkCount() int { return len(t.links) }

// Segment looks up a segment by id.
func (t *Table) Segment(id string) (Segment, error) {
	s, ok := t.segments[id]
	if !ok {
		return Segment{}, errors.New(errors.ErrCodeNotFound, "segment %q", id)
	}
	return *s, nil
}

// Rank returns the rank of segment id, or false when it is unknown.
func (t *Table) Rank(id string) (int, bool) {
	s, ok := t.segments[id]
	if !ok {
		return 0, false
	}
	return s.Rank, true
}

// Segments iterates over segments in file order.
func (t *Table) Segments() iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		for _, id := range t.order {
			if !yield(*t.segments[id]) {
				return
			}
		}
	}
}

// Links iterates over links in file order.
func (t *Table) Links() iter.Seq[Link] {
	return func(yield func(Link) bool) {
		for _, l := range t.links {
			if !yield(l) {
				return
			}
		}
	}
}

// RankOfSample returns the rank of the first segment, in file order, whose
// source sample is name. A haplotype name of the form sample.N, as written
// by ploidy expansion, falls back to the first segment of that sample and
// haplotype.
func (t *Table) RankOfSample(name string) (int, bool) {
	for _, id := range t.order {
		if s := t.segments[id]; s.Sample == name {
			return s.Rank, true
		}
	}
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return 0, false
	}
	hap, err := strconv.Atoi(name[i+1:])
	if err != nil {
		return 0, false
	}
	for _, id := range t.order {
		if s := t.segments[id]; s.Sample == name[:i] && s.Haplotype == hap {
			return s.Rank, true
		}
	}
	return 0, false
}

// LinearReference returns the sample the reference backbone was built from:
// the source sample of segment "s1", or of the first segment when no such
// id exists.
func (t *Table) LinearReference() string {
	if s, ok := t.segments["s1"]; ok {
		return s.Sample
	}
	if len(t.order) == 0 {
		return ""
	}
	return t.segments[t.order[0]].Sample
}

// Parse reads an rGFA stream.
func Parse(r io.Reader) (*Table, error) {
	t := NewTable()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1<<20), 1<<30)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := strings.TrimRight(sc.Text(), "\r\n")
		if line == "" {
			continue
		}
		switch line[0] {
		case 'S':
			s, err := parseSegment(line)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "gfa line %d", lineno)
			}
			t.Add(s)
		case 'L':
			l, err := parseLink(line)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "gfa line %d", lineno)
			}
			t.AddLink(l)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read gfa: %w", err)
	}
	return t, nil
}

// ReadFile parses the rGFA file at path. Gzip and zstd input is detected
// automatically.
func ReadFile(path string) (*Table, error) {
	f, err := simpgio.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "gfa %s", path)
	}
	defer f.Close()
	return Parse(f)
}

func parseSegment(line string) (Segment, error) {
	f := strings.Split(line, "\t")
	if len(f) < 3 {
		return Segment{}, fmt.Errorf("S record has %d fields, want at least 3", len(f))
	}
	s := Segment{ID: f[1], Sequence: f[2]}
	sn, ok := tag(f[3:], "SN", "Z")
	if !ok {
		return Segment{}, fmt.Errorf("segment %s: missing SN:Z tag", s.ID)
	}
	parts := strings.Split(sn, "#")
	if len(parts) < 3 {
		return Segment{}, fmt.Errorf("segment %s: SN %q is not sample#haplotype#chromosome", s.ID, sn)
	}
	hap, err := strconv.Atoi(parts[1])
	if err != nil {
		return Segment{}, fmt.Errorf("segment %s: haplotype %q: %w", s.ID, parts[1], err)
	}
	s.Sample, s.Haplotype, s.Chromosome = parts[0], hap, parts[2]
	if s.Rank, err = rankTag(f[3:]); err != nil {
		return Segment{}, fmt.Errorf("segment %s: %w", s.ID, err)
	}
	return s, nil
}

func parseLink(line string) (Link, error) {
	f := strings.Split(line, "\t")
	if len(f) < 5 {
		return Link{}, fmt.Errorf("L record has %d fields, want at least 5", len(f))
	}
	fs, err := pangraph.ParseStrand(f[2])
	if err != nil {
		return Link{}, err
	}
	ts, err := pangraph.ParseStrand(f[4])
	if err != nil {
		return Link{}, err
	}
	l := Link{From: f[1], FromStrand: fs, To: f[3], ToStrand: ts}
	if len(f) > 5 {
		if l.Rank, err = rankTag(f[5:]); err != nil {
			return Link{}, fmt.Errorf("link %s->%s: %w", l.From, l.To, err)
		}
	} else {
		return Link{}, fmt.Errorf("link %s->%s: missing SR:i tag", l.From, l.To)
	}
	return l, nil
}

func rankTag(fields []string) (int, error) {
	v, ok := tag(fields, "SR", "i")
	if !ok {
		return 0, fmt.Errorf("missing SR:i tag")
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("SR %q: %w", v, err)
	}
	return n, nil
}

// tag finds NAME:TYPE:value among optional fields.
func tag(fields []string, name, typ string) (string, bool) {
	prefix := name + ":" + typ + ":"
	for _, f := range fields {
		if strings.HasPrefix(f, prefix) {
			return f[len(prefix):], true
		}
	}
	return "", false
}
