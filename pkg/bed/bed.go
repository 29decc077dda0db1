// Package bed reads the bubble region file that accompanies an rGFA graph.
//
// Each line describes one region of the linear reference:
//
//	col 0   a#b#chromosome
//	col 3   number of segments in the region
//	col 4   number of possible paths through the region
//	col 5   1 when the region contains an inversion
//	col 11  comma separated segment ids, first and last on the reference
//
// Regions of one chromosome follow each other in file order; the last
// segment of a region is the first segment of the next.
package bed

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/matzehuels/simpg/pkg/errors"
	simpgio "github.com/matzehuels/simpg/pkg/io"
)

// Region is one line of the region file.
type Region struct {
	Chromosome   string
	Inverted     bool
	SegmentCount int
	PathCount    int
	Segments     []string
}

// First returns the reference segment that opens the region.
func (r Region) First() string { return r.Segments[0] }

// Last returns the reference segment that closes the region.
func (r Region) Last() string { return r.Segments[len(r.Segments)-1] }

// Regions is an ordered, immutable list of regions.
type Regions struct {
	list []Region

	once    sync.Once
	chroms  []string
	sources map[string]string
	sinks   map[string]string
}

// New wraps regions in file order.
func New(regions []Region) *Regions {
	return &Regions{list: regions}
}

// All returns the regions in file order. The slice must not be modified.
func (r *Regions) All() []Region { return r.list }

// Len returns the number of regions.
func (r *Regions) Len() int { return len(r.list) }

// Chromosomes returns chromosome names in order of first appearance.
func (r *Regions) Chromosomes() []string {
	r.index()
	return r.chroms
}

// LinearSourcesAndSinks returns, per chromosome, the first and last
// reference segment across all its regions. The result is computed once.
func (r *Regions) LinearSourcesAndSinks() (sources, sinks map[string]string) {
	r.index()
	return r.sources, r.sinks
}

// IsSource reports whether id opens some chromosome.
func (r *Regions) IsSource(id string) bool {
	r.index()
	for _, s := range r.sources {
		if s == id {
			return true
		}
	}
	return false
}

func (r *Regions) index() {
	r.once.Do(func() {
		r.sources = make(map[string]string)
		r.sinks = make(map[string]string)
		for _, reg := range r.list {
			if _, ok := r.sources[reg.Chromosome]; !ok {
				r.chroms = append(r.chroms, reg.Chromosome)
				r.sources[reg.Chromosome] = reg.First()
			}
			r.sinks[reg.Chromosome] = reg.Last()
		}
	})
}

// Parse reads a region file.
func Parse(r io.Reader) (*Regions, error) {
	var list []Region
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1<<20), 1<<28)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		reg, err := parseLine(line)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "bed line %d", lineno)
		}
		list = append(list, reg)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read bed: %w", err)
	}
	return New(list), nil
}

// ReadFile parses the region file at path.
func ReadFile(path string) (*Regions, error) {
	f, err := simpgio.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "bed %s", path)
	}
	defer f.Close()
	return Parse(f)
}

func parseLine(line string) (Region, error) {
	f := strings.Split(line, "\t")
	if len(f) < 12 {
		return Region{}, fmt.Errorf("%d columns, want at least 12", len(f))
	}
	name := strings.Split(strings.TrimSpace(f[0]), "#")
	if len(name) < 3 {
		return Region{}, fmt.Errorf("contig %q is not a#b#chromosome", f[0])
	}
	segs, err := strconv.Atoi(f[3])
	if err != nil {
		return Region{}, fmt.Errorf("segment count %q: %w", f[3], err)
	}
	paths, err := strconv.Atoi(f[4])
	if err != nil {
		return Region{}, fmt.Errorf("path count %q: %w", f[4], err)
	}
	inv, err := strconv.Atoi(f[5])
	if err != nil {
		return Region{}, fmt.Errorf("inversion flag %q: %w", f[5], err)
	}
	ids := strings.Split(strings.TrimSpace(f[11]), ",")
	for _, id := range ids {
		if id == "" {
			return Region{}, fmt.Errorf("empty segment id in %q", f[11])
		}
	}
	return Region{
		Chromosome:   name[2],
		Inverted:     inv == 1,
		SegmentCount: segs,
		PathCount:    paths,
		Segments:     ids,
	}, nil
}
