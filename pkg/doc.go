// Package pkg provides the core libraries for Flowpack diagram layout.
//
// # Overview
//
// Flowpack turns flowchart-style text into a positioned diagram. A diagram
// is usually a set of disconnected islands; laying it out as one graph
// wastes space and couples unrelated parts. Flowpack instead lays out every
// connected component on its own and packs the results onto one canvas.
//
// # Architecture
//
// The data flow through Flowpack:
//
//	Diagram text
//	     ↓
//	[parse] package (nodes, labeled edges, measured sizes)
//	     ↓
//	[decompose] package (connected components)
//	     ↓
//	[layout] package (per-component engine calls, run concurrently)
//	     ↓
//	[pack] package (shelf packing into rows)
//	     ↓
//	Positioned [diagram.Graph] as JSON
//
// The [pipeline] package composes these stages with caching and
// observability hooks. Both the CLI and the HTTP API go through it.
//
// # Quick Start
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	defer runner.Close()
//
//	res, err := runner.Execute(ctx, "A[Start] --> B[End]\nX[Alone]", pipeline.Options{
//	    Algorithm: "force",
//	})
//	if err != nil {
//	    return err
//	}
//	for _, f := range res.Failures {
//	    logger.Warn("component not laid out", "component", f.Component, "err", f.Message)
//	}
//	return diagram.WriteGraph(res.Graph, os.Stdout)
//
// # Main Packages
//
// ## Core Domain Logic
//
//   - [diagram]: graph, component, node and edge types plus JSON I/O
//   - [measure]: label measurement (heuristic and font metrics)
//   - [parse]: text parser with YAML frontmatter
//   - [decompose]: connected-component decomposition
//   - [layout]: algorithm catalogue, option tables, engine adapter
//   - [layout/graphviz]: engine backed by in-process Graphviz
//   - [pack]: shelf packer
//
// ## Infrastructure
//
//   - [pipeline]: parse → decompose → layout → pack runner
//   - [cache]: file, Redis and null caches with content-hash keys
//   - [config]: TOML configuration file
//   - [errors]: coded errors shared by the CLI and API
//   - [observability]: pipeline, cache and server hooks
//   - [observability/prom]: Prometheus implementation of the hooks
//   - [buildinfo]: version information injected at build time
//
// # Testing
//
// Layout tests run against deterministic fake engines that implement
// [layout.Engine]; only the graphviz package exercises the real engine.
// Property tests for the parser, decomposer and packer use gopter.
//
// [diagram]: https://pkg.go.dev/github.com/matzehuels/flowpack/pkg/diagram
// [measure]: https://pkg.go.dev/github.com/matzehuels/flowpack/pkg/measure
// [parse]: https://pkg.go.dev/github.com/matzehuels/flowpack/pkg/parse
// [decompose]: https://pkg.go.dev/github.com/matzehuels/flowpack/pkg/decompose
// [layout]: https://pkg.go.dev/github.com/matzehuels/flowpack/pkg/layout
// [layout.Engine]: https://pkg.go.dev/github.com/matzehuels/flowpack/pkg/layout#Engine
// [layout/graphviz]: https://pkg.go.dev/github.com/matzehuels/flowpack/pkg/layout/graphviz
// [pack]: https://pkg.go.dev/github.com/matzehuels/flowpack/pkg/pack
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/flowpack/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/flowpack/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/flowpack/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/flowpack/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/flowpack/pkg/observability
// [observability/prom]: https://pkg.go.dev/github.com/matzehuels/flowpack/pkg/observability/prom
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/flowpack/pkg/buildinfo
//
// [diagram.Graph]: https://pkg.go.dev/github.com/matzehuels/flowpack/pkg/diagram#Graph
package pkg
