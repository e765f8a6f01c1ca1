// Package pkg provides the libraries behind multilevel: hierarchical views of
// flat graphs.
//
// # Overview
//
// A base graph is grouped level by level. At each level every node is
// assigned to a parent, and every parent gets the subgraph induced by its
// members. Parents of one level may be members of the next, so a service
// graph can be viewed by team, then by organization. The pkg directory is
// organized into four areas:
//
//  1. Model: [graph] and [hierarchy]
//  2. Input and output: [io] and [render]
//  3. Orchestration: [pipeline]
//  4. Infrastructure: [cache], [metrics], [observability] and [errors]
//
// # Architecture
//
//	JSON / YAML / TOML document
//	         ↓
//	    [io] package (decode, validate, resolve IDs to nodes)
//	         ↓
//	    [hierarchy] package (one induced subgraph per parent per level)
//	         ↓
//	    [render] package (text, JSON, DOT, SVG)
//
// [pipeline] runs these steps for the CLI and the HTTP server and caches
// DOT and SVG output in a [cache.Cache].
//
// # Quick Start
//
//	doc, _ := io.ImportDocument("services.yaml")
//	g, table, _ := doc.Resolve()
//	h, _ := hierarchy.Build(g, table)
//	for parent, sub := range h.Bottom().All() {
//	    fmt.Println(parent.ID, graph.NodeIDs(sub.Nodes()))
//	}
//
// # Main Packages
//
// [graph] - Directed multigraph with pointer node identity. Self-loops and
// parallel edges are kept; every edge carries its insertion index.
//
// [hierarchy] - The builder. Validates the membership table, assigns parents
// in order of first appearance and projects base edges into subgraphs with
// an indexed or a rescanning strategy, optionally building levels in
// parallel.
//
// [io] - Document format shared by files and HTTP bodies.
//
// [render] - Text and JSON dumps ([render/text]) and Graphviz clusters
// ([render/nodelink]).
//
// [cache] - File (snappy-compressed) and Redis backends behind one interface.
//
// [metrics] - Prometheus collectors installed as [observability] hooks.
//
// # Command-Line Tool
//
// The multilevel CLI (cmd/multilevel) exposes build, render, explore and
// serve commands on top of these packages.
//
// [graph]: github.com/matzehuels/multilevel/pkg/graph
// [hierarchy]: github.com/matzehuels/multilevel/pkg/hierarchy
// [io]: github.com/matzehuels/multilevel/pkg/io
// [render]: github.com/matzehuels/multilevel/pkg/render
// [render/text]: github.com/matzehuels/multilevel/pkg/render/text
// [render/nodelink]: github.com/matzehuels/multilevel/pkg/render/nodelink
// [pipeline]: github.com/matzehuels/multilevel/pkg/pipeline
// [cache]: github.com/matzehuels/multilevel/pkg/cache
// [cache.Cache]: github.com/matzehuels/multilevel/pkg/cache.Cache
// [metrics]: github.com/matzehuels/multilevel/pkg/metrics
// [observability]: github.com/matzehuels/multilevel/pkg/observability
// [errors]: github.com/matzehuels/multilevel/pkg/errors
package pkg
