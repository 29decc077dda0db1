package pipeline

import (
	"github.com/matzehuels/simpg/pkg/bed"
	"github.com/matzehuels/simpg/pkg/cache"
	"github.com/matzehuels/simpg/pkg/errors"
	"github.com/matzehuels/simpg/pkg/gfa"
	"github.com/matzehuels/simpg/pkg/walks"
)

// Inputs are the parsed input files of a run together with their content
// hashes.
type Inputs struct {
	Segments *gfa.Table
	Regions  *bed.Regions // nil for simple builds

	GFAHash string
	BEDHash string
}

// LoadInputs parses the segment file and, unless opts.Simple is set, the
// region file.
func LoadInputs(opts InputOptions) (*Inputs, error) {
	in := &Inputs{}
	var err error
	if in.GFAHash, err = cache.HashFile(opts.GFA); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "GFA file")
	}
	if in.Segments, err = gfa.ReadFile(opts.GFA); err != nil {
		return nil, err
	}
	if opts.Simple {
		return in, nil
	}
	if in.BEDHash, err = cache.HashFile(opts.BED); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "BED file")
	}
	if in.Regions, err = bed.ReadFile(opts.BED); err != nil {
		return nil, err
	}
	return in, nil
}

// GraphKeyOpts returns the cache key fields of the graph built from in.
func (in *Inputs) GraphKeyOpts() cache.GraphKeyOpts {
	return cache.GraphKeyOpts{GFA: in.GFAHash, BED: in.BEDHash, Simple: in.Regions == nil}
}

// LoadSamples reads the sample list and applies ploidy expansion.
func LoadSamples(opts InputOptions) ([]string, error) {
	names, err := walks.ReadSamples(opts.Samples)
	if err != nil {
		return nil, err
	}
	if opts.Ploidy > 1 {
		return walks.ExpandPloidy(names, opts.Ploidy)
	}
	return names, nil
}
