// Package pkg provides the libraries behind simpg, a pangenome graph
// simulator.
//
// # Overview
//
// simpg reads a reference-anchored pangenome (rGFA) together with its bubble
// regions (BED), derives one walk per sample through the oriented segment
// graph, merges the walks into a population graph and then draws new
// genomes from it by random walks. The packages fall into three groups:
//
//  1. Inputs - [gfa] and [bed] parse the segment table and bubble regions.
//  2. Graph algorithms - [pangraph], [builder], [pathfind], [walks],
//     [population] and [randwalk].
//  3. Plumbing - [store], [cache], [pipeline], [simulate], [io], [errors],
//     [observability] and [buildinfo].
//
// # Architecture
//
// The data flow of a full run:
//
//	rGFA + BED
//	    ↓
//	[builder] (oriented variation graph)
//	    ↓
//	[walks] (one path per sample, written to a [store])
//	    ↓
//	[population] (core segments + population graph)
//	    ↓
//	[simulate] (FASTA + rVCF per simulated genome, optional subsampling)
//
// [pipeline.Runner] executes these stages and caches the graph and core
// segments through [cache].
//
// # Quick Start
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	res, err := runner.Execute(ctx, pipeline.Options{
//		Input: pipeline.InputOptions{
//			GFA:     "hprc.gfa.zst",
//			BED:     "bubbles.bed",
//			Samples: "samples.txt",
//		},
//		Simulate: pipeline.SimulateOptions{Name: "pop", Count: 10},
//	})
//
// The simpg command in cmd/simpg exposes every stage as a subcommand.
//
// [gfa]: https://pkg.go.dev/github.com/matzehuels/simpg/pkg/gfa
// [bed]: https://pkg.go.dev/github.com/matzehuels/simpg/pkg/bed
// [pangraph]: https://pkg.go.dev/github.com/matzehuels/simpg/pkg/pangraph
// [builder]: https://pkg.go.dev/github.com/matzehuels/simpg/pkg/builder
// [pathfind]: https://pkg.go.dev/github.com/matzehuels/simpg/pkg/pathfind
// [walks]: https://pkg.go.dev/github.com/matzehuels/simpg/pkg/walks
// [population]: https://pkg.go.dev/github.com/matzehuels/simpg/pkg/population
// [randwalk]: https://pkg.go.dev/github.com/matzehuels/simpg/pkg/randwalk
// [store]: https://pkg.go.dev/github.com/matzehuels/simpg/pkg/store
// [cache]: https://pkg.go.dev/github.com/matzehuels/simpg/pkg/cache
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/simpg/pkg/pipeline
// [simulate]: https://pkg.go.dev/github.com/matzehuels/simpg/pkg/simulate
// [io]: https://pkg.go.dev/github.com/matzehuels/simpg/pkg/io
// [errors]: https://pkg.go.dev/github.com/matzehuels/simpg/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/simpg/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/simpg/pkg/buildinfo
// [pipeline.Runner]: https://pkg.go.dev/github.com/matzehuels/simpg/pkg/pipeline#Runner
package pkg
