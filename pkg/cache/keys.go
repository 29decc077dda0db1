package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	simpgio "github.com/matzehuels/simpg/pkg/io"
)

// Keyer derives cache keys for pipeline artifacts.
type Keyer interface {
	// GraphKey addresses a graph built from the given inputs.
	GraphKey(opts GraphKeyOpts) string

	// CoreKey addresses the core segments of a set of walks.
	CoreKey(opts CoreKeyOpts) string
}

// GraphKeyOpts identifies a graph build.
type GraphKeyOpts struct {
	GFA    string `json:"gfa"` // content hash of the segment file
	BED    string `json:"bed"` // content hash of the region file; empty for simple builds
	Simple bool   `json:"simple"`
}

// CoreKeyOpts identifies a core segment computation.
type CoreKeyOpts struct {
	Graph     string  `json:"graph"` // graph key the walks were derived from
	Samples   string  `json:"samples"`
	MaxDetour float64 `json:"max_detour"`
	Ceiling   float64 `json:"ceiling"`
}

// DefaultKeyer produces keys of the form "kind:sha256".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) GraphKey(opts GraphKeyOpts) string { return hashKey("graph", opts) }
func (DefaultKeyer) CoreKey(opts CoreKeyOpts) string   { return hashKey("core", opts) }

func hashKey(kind string, v any) string {
	data, _ := json.Marshal(v)
	return fmt.Sprintf("%s:%s", kind, Hash(data))
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashFile returns the hex SHA-256 of the decompressed contents of path, so
// a compressed and a plain copy of the same file share a key.
func HashFile(path string) (string, error) {
	r, err := simpgio.Open(path)
	if err != nil {
		return "", err
	}
	defer r.Close()
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
