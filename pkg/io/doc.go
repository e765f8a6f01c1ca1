// Package io reads and writes hierarchy documents: a base graph plus a
// membership table in a single JSON, YAML or TOML file.
//
// # Overview
//
// A document is the serialized input of [hierarchy.Build]. It is designed for:
//
//   - Describing a flat graph together with any number of grouping levels
//   - Hand-written input (YAML and TOML) as well as tool-generated input (JSON)
//   - Round trips: resolve a document, build, export, and re-import identically
//
// # Format
//
// The YAML form of a two-level document:
//
//	nodes:
//	  - id: checkout
//	  - id: billing
//	  - id: search
//	  - id: payments      # level-0 parent, level-1 member
//	  - id: discovery
//	edges:
//	  - {from: checkout, to: billing}
//	  - {from: checkout, to: search}
//	levels:
//	  - name: team
//	    members: {checkout: payments, billing: payments, search: discovery}
//	  - name: org
//	    members: {payments: "", discovery: ""}
//
// The JSON and TOML forms use the same field names.
//
// # Node Identity
//
// Nodes are referenced by ID inside a document and resolved to pointers by
// [Document.Resolve]. Each ID maps to exactly one *graph.Node, so a parent
// named at level 0 and the same ID listed as a member at level 1 are the same
// node.
//
// Parent IDs that are not declared under nodes become detached parent nodes:
// they label subgraphs but are not part of the base graph. A level that lists
// such a node as a member is rejected by the builder with INVALID_MEMBERSHIP,
// exactly like any other member missing from the base graph. An empty parent
// ID means "no parent".
//
// # Ordering
//
// Member maps carry no order in any of the three formats. Resolve orders each
// level by the position of its members under nodes, followed by undeclared
// members sorted by ID. The resulting hierarchy is therefore identical for
// the same document regardless of format.
//
// # Errors
//
// Decoding failures, invalid IDs, duplicate node IDs and edges referencing
// undeclared nodes are reported with code INVALID_DOCUMENT. An unknown file
// format is INVALID_FORMAT and a missing file is FILE_NOT_FOUND.
//
// [hierarchy.Build]: github.com/matzehuels/multilevel/pkg/hierarchy.Build
package io
