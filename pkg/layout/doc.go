// Package layout dispatches decomposed diagrams to a geometric layout engine.
//
// # Overview
//
// The package does not compute coordinates itself. It selects one of a fixed
// set of algorithms, assembles the option map for that algorithm, and hands
// each connected component to an [Engine]. Any conforming engine works: the
// Graphviz-backed engine in the graphviz subpackage, or a deterministic test
// double built with [EngineFunc].
//
// # Architecture
//
// Option assembly is layered; later layers win:
//
//  1. [CommonOptions]: uniform 40-unit padding
//  2. The algorithm identifier ("elk.algorithm")
//  3. [AlgorithmOptions]: per-algorithm tuning
//  4. Caller overrides (frontmatter, config file, --set flags)
//
// [Adapter.Layout] runs one engine call per component, concurrently, and
// waits for all of them. A component whose call fails keeps its pre-layout
// shape and is reported in [Result.Failures]; siblings are unaffected and
// the overall call still succeeds. A flat graph (no components) is laid out
// as a single unit and an engine failure there is returned as an error with
// code LAYOUT_FAILED.
//
// # Concurrency
//
// Every engine call receives its own deep copy of the component, so engines
// may mutate their input freely. Engines that wrap single-threaded native
// code must serialize internally.
package layout
