package simulate

import (
	"strconv"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"

	"github.com/matzehuels/simpg/pkg/gfa"
	"github.com/matzehuels/simpg/pkg/pangraph"
)

// DefaultLineWidth is the FASTA line width.
const DefaultLineWidth = 80

var complement = func() (t [256]byte) {
	for i := range t {
		t[i] = byte(i)
	}
	for _, p := range []string{"AT", "TA", "CG", "GC", "at", "ta", "cg", "gc"} {
		t[p[0]] = p[1]
	}
	return t
}()

// reverseComplement returns the reverse complement of a nucleotide
// sequence. Only ACGT (either case) are complemented; every other symbol,
// such as N, is kept.
func reverseComplement(s string) []byte {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		out[len(s)-1-i] = complement[s[i]]
	}
	return out
}

// appendSequence appends the sequences of nodes to buf, reverse
// complementing reverse-strand nodes.
func appendSequence(buf []byte, segs *gfa.Table, nodes ...pangraph.Node) ([]byte, error) {
	for _, n := range nodes {
		s, err := segs.Segment(n.Segment)
		if err != nil {
			return nil, err
		}
		if n.Strand == pangraph.Reverse {
			buf = append(buf, reverseComplement(s.Sequence)...)
		} else {
			buf = append(buf, s.Sequence...)
		}
	}
	return buf, nil
}

// writeRecord writes one FASTA record.
func writeRecord(w *fasta.Writer, name string, seq []byte) error {
	s := linear.NewSeq(name, alphabet.BytesToLetters(seq), alphabet.DNAredundant)
	_, err := w.Write(s)
	return err
}

// chromosomeName names the idx-th (1-based) chromosome. In human mode 23
// and 24 are the sex chromosomes.
func chromosomeName(idx int, human bool) string {
	if human {
		switch idx {
		case 23:
			return "chrX"
		case 24:
			return "chrY"
		}
	}
	return "chr" + strconv.Itoa(idx)
}
