package walks

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/matzehuels/simpg/pkg/errors"
	simpgio "github.com/matzehuels/simpg/pkg/io"
)

// ReadSamples reads a sample list: one name per line, surrounding
// whitespace trimmed, blank lines ignored.
func ReadSamples(path string) ([]string, error) {
	r, err := simpgio.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "sample list")
	}
	defer r.Close()

	var names []string
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		name := strings.TrimSpace(sc.Text())
		if name == "" {
			continue
		}
		if err := errors.ValidateSampleName(name); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "%s line %d", path, n)
		}
		names = append(names, name)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return names, nil
}

// ExpandPloidy turns every name into ploidy haplotype names
// "name.1" .. "name.ploidy".
func ExpandPloidy(names []string, ploidy int) ([]string, error) {
	if ploidy < 1 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "ploidy must be at least 1, got %d", ploidy)
	}
	out := make([]string, 0, len(names)*ploidy)
	for _, name := range names {
		for k := 1; k <= ploidy; k++ {
			out = append(out, fmt.Sprintf("%s.%d", name, k))
		}
	}
	return out, nil
}
