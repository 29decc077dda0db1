// Package io provides file plumbing shared by the pangenome pipeline: JSON
// import and export of oriented graphs, transparent decompression of input
// files, and atomic output files.
//
// # JSON Format
//
// Graphs are written as two arrays. Node identifiers carry their strand as
// the last character:
//
//	{
//	  "nodes": [
//	    {"id": "s1+"},
//	    {"id": "s2-", "rank": 3}
//	  ],
//	  "edges": [
//	    {"from": "s1+", "to": "s2-", "rank": 3, "weight": 0.4}
//	  ]
//	}
//
// Node and edge order in the file is the graph's insertion order, so
// [ReadJSON] reproduces a graph that iterates identically to the one passed
// to [WriteJSON].
//
// # Compressed Input
//
// [Open] sniffs the first bytes of a file and wraps it in a gzip or zstd
// decoder when the magic number matches. Plain text is returned unchanged,
// so GFA, BED and sample files may be given in any of the three forms.
//
// # Atomic Output
//
// [CreateAtomic] writes to a temporary file next to the destination and
// renames it into place on [AtomicFile.Commit]. Readers never observe a
// partially written artifact.
package io
