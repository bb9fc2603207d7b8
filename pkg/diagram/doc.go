// Package diagram defines the graph model shared by every stage of the
// flowpack pipeline, together with its JSON serialization.
//
// # Architecture
//
// The model is deliberately shaped like the input of a constraint-based
// layout engine: nodes carry measured sizes, edges carry exactly one source
// and one target, and option maps steer the engine.
//
//   - [Graph]: root container. At the flat level it holds [Node] and [Edge]
//     values directly; after decomposition it holds [Component] values instead.
//   - [Component]: a maximal connected subgraph that owns private copies of
//     its nodes and edges. It is the unit of layout and packing.
//   - [Options]: named engine options ("elk.algorithm", "elk.spacing.nodeNode", ...).
//
// Positions are optional: they are nil until a layout engine assigns them.
// Node and edge positions are relative to their owning component, and a
// component position is its offset on the packed canvas.
//
// # Serialization
//
//	data, _ := diagram.MarshalGraph(g)          // Graph → []byte
//	g, _ := diagram.UnmarshalGraph(data)        // []byte → Graph (validated)
//	diagram.WriteGraphFile(g, "layout.json")    // Graph → File
//	g, _ = diagram.ReadGraphFile("layout.json") // File → Graph
//
// # Concurrency
//
// Graphs are plain values without internal locking. A component is owned by
// exactly one goroutine at a time; use [Component.Clone] before handing a
// component to code that may mutate it.
package diagram
