// Package render turns built hierarchies into output formats.
//
// Renderers live in subpackages:
//
//   - [text]: a terminal-friendly dump of every level and a JSON summary
//   - [nodelink]: Graphviz DOT with one cluster per parent, and SVG
//
// Renderers only read a [hierarchy.Hierarchy]; they never modify the base
// graph or any subgraph, so one hierarchy can be rendered concurrently in
// several formats.
//
// [text]: github.com/matzehuels/multilevel/pkg/render/text
// [nodelink]: github.com/matzehuels/multilevel/pkg/render/nodelink
// [hierarchy.Hierarchy]: github.com/matzehuels/multilevel/pkg/hierarchy.Hierarchy
package render
