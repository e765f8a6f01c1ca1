// Package pipeline runs the load → build → render sequence shared by the
// CLI and the HTTP server.
//
// # Stages
//
//  1. Load: read a document from a file ([Runner.Load]) or a request body
//  2. Build: resolve the document and build the hierarchy ([Runner.Build])
//  3. Render: produce one artifact per requested format ([Runner.Render])
//
// [Runner.Execute] runs build and render together and reports timing and
// cache statistics in a [Result].
//
// # Caching
//
// DOT and SVG artifacts depend only on the document and the render options,
// so they are cached under a key derived from the canonical document hash.
// Text and JSON output embed the build ID and are always rendered fresh.
// Builds are never cached: they are cheap compared to Graphviz layout, and a
// Hierarchy holds pointers that have no serialized form.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	doc, err := runner.Load("services.yaml")
//	res, err := runner.Execute(ctx, doc, pipeline.Options{Formats: []string{"svg"}})
//	svg := res.Artifacts["svg"]
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/multilevel/pkg/cache"
	apperr "github.com/matzehuels/multilevel/pkg/errors"
	"github.com/matzehuels/multilevel/pkg/hierarchy"
	mlio "github.com/matzehuels/multilevel/pkg/io"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatText: true,
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// cacheable lists the formats whose output does not depend on the build ID.
var cacheable = map[string]bool{
	FormatDOT: true,
	FormatSVG: true,
}

// ContentTypes maps formats to HTTP media types.
var ContentTypes = map[string]string{
	FormatText: "text/plain; charset=utf-8",
	FormatJSON: "application/json",
	FormatDOT:  "text/vnd.graphviz",
	FormatSVG:  "image/svg+xml",
}

// DefaultFormat is used when no format is requested.
const DefaultFormat = FormatText

// Options configures a pipeline run.
type Options struct {
	// Build options
	Strategy string `json:"strategy,omitempty"`
	Parallel int    `json:"parallel,omitempty"`
	Verify   bool   `json:"verify,omitempty"`

	// Render options
	Formats        []string `json:"formats,omitempty"`
	Level          int      `json:"level,omitempty"`
	Direction      string   `json:"direction,omitempty"`
	Detailed       bool     `json:"detailed,omitempty"`
	HideCrossEdges bool     `json:"hide_cross_edges,omitempty"`
	Table          bool     `json:"table,omitempty"`
	Refresh        bool     `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"` // Overrides Runner.Logger for one run
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Hierarchy *hierarchy.Hierarchy
	DocHash   string
	Artifacts map[string][]byte
	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	LevelCount int
	BuildTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	RenderHit bool // Whether every cacheable artifact came from cache
}

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return apperr.New(apperr.ErrCodeInvalidFormat, "invalid format: %q (must be one of: text, json, dot, svg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are supported.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks options and fills in defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if _, err := hierarchy.ParseStrategy(o.Strategy); err != nil {
		return err
	}
	if o.Parallel < 0 {
		return apperr.New(apperr.ErrCodeInvalidInput, "parallel must not be negative, got %d", o.Parallel)
	}
	if o.Level < 0 {
		return apperr.New(apperr.ErrCodeInvalidLevel, "level must not be negative, got %d", o.Level)
	}
	return nil
}

// ArtifactKeyOpts returns the cache key options for format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:         format,
		Level:          o.Level,
		Direction:      o.Direction,
		Detailed:       o.Detailed,
		HideCrossEdges: o.HideCrossEdges,
	}
}

// DocumentHash returns the hash of the canonical form of doc.
func DocumentHash(doc *mlio.Document) (string, error) {
	data, err := mlio.Canonical(doc)
	if err != nil {
		return "", err
	}
	return cache.Hash(data), nil
}
