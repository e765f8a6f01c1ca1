package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/multilevel/pkg/cache"
	apperr "github.com/matzehuels/multilevel/pkg/errors"
	"github.com/matzehuels/multilevel/pkg/hierarchy"
	mlio "github.com/matzehuels/multilevel/pkg/io"
	"github.com/matzehuels/multilevel/pkg/observability"
	"github.com/matzehuels/multilevel/pkg/render/nodelink"
	"github.com/matzehuels/multilevel/pkg/render/text"
)

// Runner executes the pipeline with caching. It holds no per-run state, so
// one Runner may serve concurrent requests with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// uses cache.DefaultKeyer and a nil logger uses log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Load reads a document from path, inferring its format from the extension.
func (r *Runner) Load(path string) (*mlio.Document, error) {
	doc, err := mlio.ImportDocument(path)
	if err != nil {
		return nil, err
	}
	r.Logger.Debug("loaded document",
		"path", path,
		"nodes", len(doc.Nodes),
		"edges", len(doc.Edges),
		"levels", len(doc.Levels))
	return doc, nil
}

// Build resolves doc and builds its hierarchy. With opts.Verify set, the
// result is checked against the membership table before it is returned.
func (r *Runner) Build(ctx context.Context, doc *mlio.Document, opts Options) (*hierarchy.Hierarchy, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	strategy, _ := hierarchy.ParseStrategy(opts.Strategy)

	base, table, err := doc.Resolve()
	if err != nil {
		return nil, err
	}
	h, err := hierarchy.BuildContext(ctx, base, table,
		hierarchy.WithStrategy(strategy),
		hierarchy.WithParallel(opts.Parallel),
		hierarchy.WithLogger(r.logger(opts)))
	if err != nil {
		return nil, err
	}
	if opts.Verify {
		if err := hierarchy.Verify(h); err != nil {
			return nil, apperr.Wrap(apperr.ErrCodeInternal, err, "verify hierarchy")
		}
		r.logger(opts).Debug("verified hierarchy", "levels", h.Depth())
	}
	return h, nil
}

// Execute builds the hierarchy of doc and renders every requested format.
func (r *Runner) Execute(ctx context.Context, doc *mlio.Document, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	logger := r.logger(opts)

	buildStart := time.Now()
	h, err := r.Build(ctx, doc, opts)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Hierarchy: h,
		Stats: Stats{
			NodeCount:  h.Base().NodeCount(),
			EdgeCount:  h.Base().EdgeCount(),
			LevelCount: h.Depth(),
			BuildTime:  time.Since(buildStart),
		},
	}
	logger.Info("built hierarchy",
		"levels", res.Stats.LevelCount,
		"nodes", res.Stats.NodeCount,
		"edges", res.Stats.EdgeCount,
		"duration", res.Stats.BuildTime)

	if res.DocHash, err = DocumentHash(doc); err != nil {
		return nil, err
	}

	renderStart := time.Now()
	res.Artifacts, res.CacheInfo.RenderHit, err = r.RenderWithCacheInfo(ctx, h, doc, res.DocHash, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	res.Stats.RenderTime = time.Since(renderStart)
	logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", res.CacheInfo.RenderHit,
		"duration", res.Stats.RenderTime)
	return res, nil
}

// RenderWithCacheInfo renders h in every format of opts. Cacheable formats
// are looked up under docHash first; the returned flag reports whether all
// of them were cache hits.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, h *hierarchy.Hierarchy, doc *mlio.Document, docHash string, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	names := doc.LevelNames()

	artifacts := make(map[string][]byte, len(opts.Formats))
	allHit, anyCacheable := true, false
	for _, format := range opts.Formats {
		if !cacheable[format] {
			data, err := Render(ctx, h, names, format, opts)
			if err != nil {
				return nil, false, err
			}
			artifacts[format] = data
			continue
		}

		anyCacheable = true
		key := r.Keyer.ArtifactKey(docHash, opts.ArtifactKeyOpts(format))
		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				artifacts[format] = data
				continue
			} else if err != nil {
				r.logger(opts).Warn("cache read failed", "format", format, "error", err)
			}
		}
		allHit = false

		data, err := Render(ctx, h, names, format, opts)
		if err != nil {
			return nil, false, err
		}
		if err := r.Cache.Set(ctx, key, data, cache.ArtifactTTL); err != nil {
			r.logger(opts).Warn("cache write failed", "format", format, "error", err)
		}
		artifacts[format] = data
	}
	return artifacts, anyCacheable && allHit, nil
}

// Render produces a single artifact without caching.
func Render(ctx context.Context, h *hierarchy.Hierarchy, names []string, format string, opts Options) ([]byte, error) {
	hooks := observability.Render()
	hooks.OnRenderStart(ctx, format)
	start := time.Now()

	data, err := render(ctx, h, names, format, opts)
	hooks.OnRenderComplete(ctx, format, len(data), time.Since(start), err)
	return data, err
}

func render(ctx context.Context, h *hierarchy.Hierarchy, names []string, format string, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatText:
		if err := text.Write(&buf, h, text.Options{LevelNames: names, Table: opts.Table}); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatJSON:
		if err := text.WriteJSON(&buf, h, names); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatDOT, FormatSVG:
		dot, err := nodelink.ToDOT(h, opts.Level, nodelink.Options{
			Detailed:       opts.Detailed,
			Direction:      opts.Direction,
			HideCrossEdges: opts.HideCrossEdges,
		})
		if err != nil {
			return nil, err
		}
		if format == FormatDOT {
			return []byte(dot), nil
		}
		return nodelink.RenderSVG(ctx, dot)
	}
	return nil, ValidateFormat(format)
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// logger returns the per-run logger, falling back to the runner's.
func (r *Runner) logger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}
