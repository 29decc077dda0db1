package simulate

import (
	"bufio"
	"context"
	"io"
	"math"
	"math/rand/v2"
	"path/filepath"
	"slices"
	"strings"

	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/simpg/pkg/bed"
	"github.com/matzehuels/simpg/pkg/errors"
	"github.com/matzehuels/simpg/pkg/gfa"
	simpgio "github.com/matzehuels/simpg/pkg/io"
	"github.com/matzehuels/simpg/pkg/pangraph"
	"github.com/matzehuels/simpg/pkg/randwalk"
)

// SubsampleOptions configures [Subsample].
type SubsampleOptions struct {
	Fraction  float64 // share of rvcf records kept, in [0, 1]
	Human     bool
	LineWidth int
	Logger    *log.Logger
}

func (o SubsampleOptions) withDefaults() SubsampleOptions {
	if o.LineWidth <= 0 {
		o.LineWidth = DefaultLineWidth
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return o
}

// Subsample keeps round(n*Fraction) of the n rvcf records read from in,
// chosen uniformly without replacement and written to rvcf in their
// original order. It then writes to fa the reference genome with the kept
// alternative paths spliced in and returns the number of kept records.
//
// Records are assigned to chromosomes in order: a record whose first node
// lies beyond the last reference segment of the current chromosome moves on
// to the next one. Records whose endpoints cannot be found in the current
// chromosome are logged and skipped.
func Subsample(in io.Reader, regions *bed.Regions, segs *gfa.Table, rng *rand.Rand, fa, rvcf io.Writer, opts SubsampleOptions) (int, error) {
	opts = opts.withDefaults()
	if err := errors.ValidateFraction("fraction", opts.Fraction); err != nil {
		return 0, err
	}

	var lines []string
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 1<<16), 1<<30)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "read rvcf")
	}
	kept := keepFraction(lines, opts.Fraction, rng)

	vw := bufio.NewWriter(rvcf)
	for _, l := range kept {
		vw.WriteString(l)
		vw.WriteByte('\n')
	}
	if err := vw.Flush(); err != nil {
		return 0, errors.Wrap(errors.ErrCodeStorage, err, "write rvcf")
	}

	chains, err := splice(kept, regions, opts.Logger)
	if err != nil {
		return 0, err
	}
	fw := fasta.NewWriter(fa, opts.LineWidth)
	for i, chain := range chains {
		seq, err := appendSequence(nil, segs, chain...)
		if err != nil {
			return 0, err
		}
		if err := writeRecord(fw, chromosomeName(i+1, opts.Human), seq); err != nil {
			return 0, errors.Wrap(errors.ErrCodeStorage, err, "write fasta")
		}
	}
	return len(kept), nil
}

// keepFraction samples lines without replacement, preserving order.
// The kept count is rounded half to even.
func keepFraction(lines []string, fraction float64, rng *rand.Rand) []string {
	switch fraction {
	case 0:
		return nil
	case 1:
		return lines
	}
	n := len(lines)
	k := int(math.RoundToEven(float64(n) * fraction))
	idx := rng.Perm(n)[:k]
	slices.Sort(idx)
	out := make([]string, k)
	for i, j := range idx {
		out[i] = lines[j]
	}
	return out
}

// splice builds the reference chain of every chromosome and replaces the
// range of each record with its alternative path.
func splice(records []string, regions *bed.Regions, logger *log.Logger) ([]pangraph.Walk, error) {
	sources, sinks := regions.LinearSourcesAndSinks()
	chroms := regions.Chromosomes()
	chains := make([]pangraph.Walk, len(chroms))
	for i, c := range chroms {
		chain, err := pangraph.LinearWalk(sources[c], sinks[c])
		if err != nil {
			return nil, err
		}
		chains[i] = chain
	}
	if len(chains) == 0 {
		return nil, nil
	}

	hints := make([]int, len(chains))
	chr := 0
	for n, line := range records {
		if strings.TrimSpace(line) == "" {
			continue
		}
		v, err := ParseVariant(line)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "rvcf record %d", n+1)
		}
		first, last := v.Alt[0], v.Alt[len(v.Alt)-1]
		num, err := pangraph.SegmentNumber(first.Segment)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "rvcf record %d", n+1)
		}
		chain := chains[chr]
		if tail, err := pangraph.SegmentNumber(chain[len(chain)-1].Segment); err == nil && num > tail {
			chr++
			if chr >= len(chains) {
				return nil, errors.New(errors.ErrCodeInvalidInput, "rvcf record %d lies beyond the last chromosome", n+1)
			}
			chain = chains[chr]
		}
		start := indexFrom(chain, first, hints[chr])
		if start < 0 {
			logger.Warn("record start not on reference, skipping", "record", n+1, "node", first)
			continue
		}
		end := slices.Index(chain[start:], last)
		if end < 0 {
			logger.Warn("record end not on reference, skipping", "record", n+1, "node", last)
			continue
		}
		chains[chr] = slices.Replace(chain, start, start+end+1, v.Alt...)
		hints[chr] = start
	}
	return chains, nil
}

// indexFrom finds n in w, searching from hint onwards first.
func indexFrom(w pangraph.Walk, n pangraph.Node, hint int) int {
	if hint > len(w) {
		hint = 0
	}
	if i := slices.Index(w[hint:], n); i >= 0 {
		return hint + i
	}
	return slices.Index(w[:hint], n)
}

// SubsampleFiles applies [Subsample] to the rvcf files of simulations
// 1..count of population name. inDir is the directory holding the rvcf
// files themselves; results go under outDir with the same layout as
// [Population]. Simulation i uses seed seed+i-1. The kept record count of
// every simulation is returned.
func SubsampleFiles(ctx context.Context, inDir, outDir, name string, count int, seed uint64, regions *bed.Regions, segs *gfa.Table, opts SubsampleOptions) ([]int, error) {
	opts = opts.withDefaults()
	if err := errors.ValidateOutputName(name); err != nil {
		return nil, err
	}
	kept := make([]int, 0, count)
	for i := 1; i <= count; i++ {
		if err := ctx.Err(); err != nil {
			return kept, err
		}
		inPath := filepath.Join(inDir, baseName(name, i)+".rvcf")
		faPath, rvcfPath := Paths(outDir, name, i)
		n, err := subsampleFile(inPath, faPath, rvcfPath, regions, segs, randwalk.NewRand(seed+uint64(i-1)), opts)
		if err != nil {
			return kept, err
		}
		opts.Logger.Info("subsample finished", "input", inPath, "kept", n)
		kept = append(kept, n)
	}
	return kept, nil
}

func subsampleFile(inPath, faPath, rvcfPath string, regions *bed.Regions, segs *gfa.Table, rng *rand.Rand, opts SubsampleOptions) (int, error) {
	in, err := simpgio.Open(inPath)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeFileNotFound, err, "rvcf")
	}
	defer in.Close()

	fa, err := simpgio.CreateAtomic(faPath)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeStorage, err, "create fasta")
	}
	defer fa.Abort()
	rvcf, err := simpgio.CreateAtomic(rvcfPath)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeStorage, err, "create rvcf")
	}
	defer rvcf.Abort()

	faBuf := bufio.NewWriterSize(fa, 1<<20)
	kept, err := Subsample(in, regions, segs, rng, faBuf, rvcf, opts)
	if err != nil {
		return 0, err
	}
	if err := faBuf.Flush(); err != nil {
		return 0, errors.Wrap(errors.ErrCodeStorage, err, "write fasta")
	}
	if err := fa.Commit(); err != nil {
		return 0, errors.Wrap(errors.ErrCodeStorage, err, "write fasta")
	}
	if err := rvcf.Commit(); err != nil {
		return 0, errors.Wrap(errors.ErrCodeStorage, err, "write rvcf")
	}
	return kept, nil
}
