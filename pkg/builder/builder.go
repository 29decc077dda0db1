// Package builder turns rGFA segments and links into an oriented pangenome
// graph.
//
// GFA links are bidirected: a link A+ -> B- also implies B+ -> A-. Keeping
// both directions for every segment doubles the graph and creates spurious
// cycles, so [Build] materializes a single orientation for every segment
// that is not part of an inversion, choosing it from the linear reference
// backbone and the region file. [BuildSimple] keeps both directions and is
// used when no region file is available.
//
// # Orientation rules
//
// The backbone of each chromosome is the forward chain of reference segments
// between its first and last region boundary. A segment is "on the backbone"
// when its numeric id does not exceed the last backbone id. Segments listed
// two or more times inside an inverted region are "doubled": both strands
// exist and both directions of each of their links are added.
//
// For the remaining links the orientation is taken, in order, from:
//
//  1. a backbone endpoint and its strand,
//  2. an orientation of either endpoint already present in the graph,
//  3. the first occurrence of the endpoints in the concatenated region
//     lists, upstream segments pointing downstream.
//
// Links that cannot be decided are deferred and retried once more of the
// graph exists. The position rule is a heuristic: it assumes region order
// reflects 5' to 3' order, which does not hold inside nested inversions.
package builder

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/simpg/pkg/bed"
	"github.com/matzehuels/simpg/pkg/errors"
	"github.com/matzehuels/simpg/pkg/gfa"
	"github.com/matzehuels/simpg/pkg/observability"
	"github.com/matzehuels/simpg/pkg/pangraph"
)

const progressEvery = 200000

// Options configures graph construction.
type Options struct {
	// Logger receives progress and warnings. Nil discards output.
	Logger *log.Logger
}

// Pair names the endpoints of a link.
type Pair struct {
	From, To string
}

func (p Pair) String() string { return p.From + "->" + p.To }

// Report describes a construction run.
type Report struct {
	Links        int           // links read
	SkippedLinks int           // links with an endpoint outside every region
	Doubled      int           // segments materialized on both strands
	Deferred     int           // links deferred at least once
	Unresolved   []Pair        // links never oriented
	Pruned       int           // nodes removed as surplus terminals
	Duration     time.Duration // wall time
}

// pendingKind records which endpoint a deferred link waits for.
type pendingKind int

const (
	// pendingEither waits for any orientation of either endpoint.
	pendingEither pendingKind = iota
	// pendingTo has a doubled From and waits for an orientation of To.
	pendingTo
	// pendingFrom has a doubled To and waits for an orientation of From.
	pendingFrom
)

type pending struct {
	link gfa.Link
	kind pendingKind
}

type builder struct {
	g          *pangraph.Graph
	segs       *gfa.Table
	logger     *log.Logger
	lastLinear int
	doubled    map[string]bool
	firstPos   map[string]int
	lastPos    map[string]int
	queue      []pending
	report     *Report
}

func newLogger(l *log.Logger) *log.Logger {
	if l == nil {
		return log.New(io.Discard)
	}
	return l
}

// Build constructs the oriented graph using the region file to resolve
// orientations. It fails when a link or an inverted region references a
// segment missing from segs.
func Build(segs *gfa.Table, regions *bed.Regions, opts Options) (*pangraph.Graph, *Report, error) {
	start := time.Now()
	hooks := observability.Build()
	hooks.OnBuildStart(segs.Len(), segs.LinkCount())

	b := &builder{
		g:        pangraph.New(),
		segs:     segs,
		logger:   newLogger(opts.Logger),
		doubled:  make(map[string]bool),
		firstPos: make(map[string]int),
		lastPos:  make(map[string]int),
		report:   &Report{},
	}
	if regions.Len() == 0 {
		return nil, nil, errors.New(errors.ErrCodeInvalidInput, "region file has no regions")
	}
	if err := b.backbone(regions); err != nil {
		return nil, nil, err
	}
	inRegions, err := b.scanRegions(regions)
	if err != nil {
		return nil, nil, err
	}
	if err := b.orientLinks(inRegions); err != nil {
		return nil, nil, err
	}
	if err := b.drainDeferred(); err != nil {
		return nil, nil, err
	}
	sources, _ := regions.LinearSourcesAndSinks()
	b.prune(len(sources))

	b.report.Duration = time.Since(start)
	hooks.OnBuildComplete(b.g.NodeCount(), b.g.EdgeCount(), len(b.report.Unresolved), b.report.Duration)
	return b.g, b.report, nil
}

// BuildSimple adds every link in both directions without orientation
// resolution.
func BuildSimple(segs *gfa.Table, opts Options) (*pangraph.Graph, *Report, error) {
	start := time.Now()
	hooks := observability.Build()
	hooks.OnBuildStart(segs.Len(), segs.LinkCount())

	b := &builder{g: pangraph.New(), segs: segs, logger: newLogger(opts.Logger), report: &Report{}}
	for l := range segs.Links() {
		b.report.Links++
		if err := b.forward(l); err != nil {
			return nil, nil, err
		}
		if err := b.mirror(l); err != nil {
			return nil, nil, err
		}
	}
	b.report.Duration = time.Since(start)
	hooks.OnBuildComplete(b.g.NodeCount(), b.g.EdgeCount(), 0, b.report.Duration)
	return b.g, b.report, nil
}

func (b *builder) backbone(regions *bed.Regions) error {
	sources, sinks := regions.LinearSourcesAndSinks()
	chroms := regions.Chromosomes()
	for _, chr := range chroms {
		w, err := pangraph.LinearWalk(sources[chr], sinks[chr])
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "backbone of %s", chr)
		}
		for i, n := range w {
			b.g.AddNode(n, 0)
			if i > 0 {
				if err := b.g.AddEdge(w[i-1], n, pangraph.EdgeAttr{}); err != nil {
					return err
				}
			}
		}
	}
	last, err := pangraph.SegmentNumber(sinks[chroms[len(chroms)-1]])
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "last backbone segment")
	}
	b.lastLinear = last
	b.logger.Debug("built backbone", "chromosomes", len(chroms), "nodes", b.g.NodeCount(), "last", last)
	return nil
}

// scanRegions concatenates region segment lists, records first and last
// positions, and materializes doubled segments on both strands.
func (b *builder) scanRegions(regions *bed.Regions) (map[string]bool, error) {
	sources, _ := regions.LinearSourcesAndSinks()
	var concat []string
	prev := ""
	for i, reg := range regions.All() {
		if i == 0 || reg.Chromosome != prev {
			concat = append(concat, sources[reg.Chromosome])
			prev = reg.Chromosome
		}
		concat = append(concat, reg.Segments[1:]...)
		if !reg.Inverted {
			continue
		}
		for _, id := range repeated(reg.Segments) {
			if !b.doubled[id] {
				b.doubled[id] = true
				b.report.Doubled++
			}
			if err := b.add(pangraph.Fwd(id)); err != nil {
				return nil, err
			}
			if err := b.add(pangraph.Rev(id)); err != nil {
				return nil, err
			}
		}
	}
	in := make(map[string]bool, len(concat))
	for i, id := range concat {
		if _, ok := b.firstPos[id]; !ok {
			b.firstPos[id] = i
		}
		b.lastPos[id] = i
		in[id] = true
	}
	return in, nil
}

// repeated returns ids listed at least twice, in order of first appearance.
func repeated(ids []string) []string {
	count := make(map[string]int, len(ids))
	var order []string
	for _, id := range ids {
		if count[id] == 0 {
			order = append(order, id)
		}
		count[id]++
	}
	var out []string
	for _, id := range order {
		if count[id] >= 2 {
			out = append(out, id)
		}
	}
	return out
}

func (b *builder) orientLinks(inRegions map[string]bool) error {
	for l := range b.segs.Links() {
		b.report.Links++
		if b.report.Links%progressEvery == 0 {
			b.logger.Debug("processing links", "done", b.report.Links)
		}
		if !inRegions[l.From] || !inRegions[l.To] {
			b.report.SkippedLinks++
			continue
		}
		var err error
		switch fd, td := b.doubled[l.From], b.doubled[l.To]; {
		case fd && td:
			if err = b.forward(l); err == nil {
				err = b.mirror(l)
			}
		case !fd && !td:
			err = b.orientPlain(l)
		case fd:
			err = b.orientFromDoubled(l)
		default:
			err = b.orientToDoubled(l)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) orientPlain(l gfa.Link) error {
	fromNum, toNum, err := b.numbers(l)
	if err != nil {
		return err
	}
	from, to := fromNode(l), toNode(l)
	switch {
	case fromNum <= b.lastLinear:
		return b.byStrand(l, l.FromStrand)
	case toNum <= b.lastLinear:
		return b.byStrand(l, l.ToStrand)
	case b.g.HasNode(from) || b.g.HasNode(to):
		return b.forward(l)
	case b.g.HasNode(from.Flip()) || b.g.HasNode(to.Flip()):
		return b.mirror(l)
	case b.firstPos[l.From] < b.firstPos[l.To]:
		return b.forward(l)
	case b.firstPos[l.From] > b.firstPos[l.To]:
		return b.mirror(l)
	}
	b.postpone(l, pendingEither)
	return nil
}

func (b *builder) orientFromDoubled(l gfa.Link) error {
	_, toNum, err := b.numbers(l)
	if err != nil {
		return err
	}
	to := toNode(l)
	switch {
	case toNum <= b.lastLinear:
		return b.byStrand(l, l.ToStrand)
	case b.g.HasNode(to):
		return b.forward(l)
	case b.g.HasNode(to.Flip()):
		return b.mirror(l)
	case b.firstPos[l.To] < b.firstPos[l.From]:
		return b.mirror(l)
	case b.firstPos[l.To] > b.lastPos[l.From]:
		return b.forward(l)
	}
	b.postpone(l, pendingTo)
	return nil
}

func (b *builder) orientToDoubled(l gfa.Link) error {
	fromNum, _, err := b.numbers(l)
	if err != nil {
		return err
	}
	from := fromNode(l)
	switch {
	case fromNum <= b.lastLinear:
		return b.byStrand(l, l.FromStrand)
	case b.g.HasNode(from):
		return b.forward(l)
	case b.g.HasNode(from.Flip()):
		return b.mirror(l)
	case b.firstPos[l.From] < b.firstPos[l.To]:
		return b.forward(l)
	case b.firstPos[l.From] > b.lastPos[l.To]:
		return b.mirror(l)
	}
	b.postpone(l, pendingFrom)
	return nil
}

func (b *builder) postpone(l gfa.Link, kind pendingKind) {
	b.queue = append(b.queue, pending{link: l, kind: kind})
	b.report.Deferred++
}

// drainDeferred retries deferred links until a full pass resolves nothing.
func (b *builder) drainDeferred() error {
	for pass := 1; len(b.queue) > 0; pass++ {
		n := len(b.queue)
		var next []pending
		for _, p := range b.queue {
			ok, err := b.resolve(p)
			if err != nil {
				return err
			}
			if !ok {
				next = append(next, p)
			}
		}
		b.queue = next
		b.logger.Info("deferred link pass complete", "pass", pass, "links", n, "remaining", len(next))
		if len(next) == n {
			break
		}
	}
	if len(b.queue) > 0 {
		pairs := make([]Pair, len(b.queue))
		for i, p := range b.queue {
			pairs[i] = Pair{From: p.link.From, To: p.link.To}
		}
		b.report.Unresolved = pairs
		b.logger.Warn("links left without orientation", "count", len(pairs), "links", fmt.Sprint(pairs))
	}
	return nil
}

func (b *builder) resolve(p pending) (bool, error) {
	from, to := fromNode(p.link), toNode(p.link)
	var fwd, rev bool
	switch p.kind {
	case pendingEither:
		fwd = b.g.HasNode(from) || b.g.HasNode(to)
		rev = b.g.HasNode(from.Flip()) || b.g.HasNode(to.Flip())
	case pendingTo:
		fwd, rev = b.g.HasNode(to), b.g.HasNode(to.Flip())
	case pendingFrom:
		fwd, rev = b.g.HasNode(from), b.g.HasNode(from.Flip())
	}
	switch {
	case fwd:
		return true, b.forward(p.link)
	case rev:
		return true, b.mirror(p.link)
	}
	return false, nil
}

// prune removes surplus zero-in-degree and then zero-out-degree nodes until
// at most one per chromosome remains, keeping the earliest inserted ones.
func (b *builder) prune(chromosomes int) {
	for {
		src := b.g.Sources()
		if len(src) <= chromosomes {
			break
		}
		b.g.RemoveNodes(src[chromosomes:]...)
		b.report.Pruned += len(src) - chromosomes
	}
	for {
		snk := b.g.Sinks()
		if len(snk) <= chromosomes {
			break
		}
		b.g.RemoveNodes(snk[chromosomes:]...)
		b.report.Pruned += len(snk) - chromosomes
	}
	b.logger.Debug("pruned terminal nodes", "removed", b.report.Pruned)
}

// byStrand orients a link anchored on a backbone endpoint: a forward anchor
// keeps the link as written, a reverse anchor uses its mirror.
func (b *builder) byStrand(l gfa.Link, anchor pangraph.Strand) error {
	if anchor == pangraph.Forward {
		return b.forward(l)
	}
	return b.mirror(l)
}

// forward adds From(fs) -> To(ts).
func (b *builder) forward(l gfa.Link) error {
	return b.connect(fromNode(l), toNode(l), l.Rank)
}

// mirror adds To(flip ts) -> From(flip fs).
func (b *builder) mirror(l gfa.Link) error {
	return b.connect(toNode(l).Flip(), fromNode(l).Flip(), l.Rank)
}

func (b *builder) connect(u, v pangraph.Node, rank int) error {
	if err := b.add(u); err != nil {
		return err
	}
	if err := b.add(v); err != nil {
		return err
	}
	return b.g.AddEdge(u, v, pangraph.EdgeAttr{Rank: rank})
}

// add inserts n with the rank of its segment.
func (b *builder) add(n pangraph.Node) error {
	rank, ok := b.segs.Rank(n.Segment)
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "segment %q referenced but not defined", n.Segment)
	}
	b.g.AddNode(n, rank)
	return nil
}

func (b *builder) numbers(l gfa.Link) (int, int, error) {
	from, err := pangraph.SegmentNumber(l.From)
	if err != nil {
		return 0, 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "link %s->%s", l.From, l.To)
	}
	to, err := pangraph.SegmentNumber(l.To)
	if err != nil {
		return 0, 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "link %s->%s", l.From, l.To)
	}
	return from, to, nil
}

func fromNode(l gfa.Link) pangraph.Node { return pangraph.Node{Segment: l.From, Strand: l.FromStrand} }
func toNode(l gfa.Link) pangraph.Node   { return pangraph.Node{Segment: l.To, Strand: l.ToStrand} }
