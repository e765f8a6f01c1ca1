package hierarchy

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	apperr "github.com/matzehuels/multilevel/pkg/errors"
	"github.com/matzehuels/multilevel/pkg/graph"
	"github.com/matzehuels/multilevel/pkg/observability"
)

// Strategy selects how edges are projected into a level's subgraphs.
type Strategy int

const (
	// StrategyIndexed projects edges in one pass over the base edges per
	// level, looking up both endpoints in a node-to-subgraph index.
	StrategyIndexed Strategy = iota
	// StrategyRescan checks every base edge against every subgraph of a
	// level. It is O(subgraphs x edges) and serves as the reference.
	StrategyRescan
)

// String returns the strategy name as accepted by ParseStrategy.
func (s Strategy) String() string {
	switch s {
	case StrategyIndexed:
		return "indexed"
	case StrategyRescan:
		return "rescan"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ParseStrategy converts a strategy name ("indexed" or "rescan") to a Strategy.
// The empty string selects the default, StrategyIndexed.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "indexed":
		return StrategyIndexed, nil
	case "rescan":
		return StrategyRescan, nil
	}
	return 0, apperr.New(apperr.ErrCodeInvalidInput, "unknown strategy %q (must be 'indexed' or 'rescan')", s)
}

// Option configures a build.
type Option func(*options)

type options struct {
	strategy Strategy
	parallel int
	logger   *log.Logger
	hooks    observability.BuildHooks
}

// WithStrategy selects the edge projection strategy. Default: StrategyIndexed.
func WithStrategy(s Strategy) Option {
	return func(o *options) { o.strategy = s }
}

// WithParallel builds up to n levels concurrently. Values below 2 build
// levels sequentially, bottom to top.
func WithParallel(n int) Option {
	return func(o *options) { o.parallel = n }
}

// WithLogger sets the logger used for per-level debug output.
// By default nothing is logged.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithHooks overrides the globally registered observability.Build hooks.
func WithHooks(h observability.BuildHooks) Option {
	return func(o *options) {
		if h != nil {
			o.hooks = h
		}
	}
}

// Build constructs the hierarchy for base and table. See [BuildContext].
func Build(base *graph.Graph, table Table, opts ...Option) (*Hierarchy, error) {
	return BuildContext(context.Background(), base, table, opts...)
}

// BuildContext constructs one LevelState per level of table.
//
// The whole table is validated before any level is built; on failure the
// error wraps ErrInvalidMembership (code INVALID_MEMBERSHIP) and no
// hierarchy is returned. A nil base graph is reported as INVALID_INPUT. An
// empty table yields a hierarchy with zero levels.
//
// The context is only handed to observability hooks; the build itself never
// blocks. Neither base nor table is modified.
func BuildContext(ctx context.Context, base *graph.Graph, table Table, opts ...Option) (*Hierarchy, error) {
	o := options{
		strategy: StrategyIndexed,
		logger:   log.NewWithOptions(io.Discard, log.Options{}),
		hooks:    observability.Build(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	nodes, edges := 0, 0
	if base != nil {
		nodes, edges = base.NodeCount(), base.EdgeCount()
	}
	o.hooks.OnBuildStart(ctx, len(table), nodes, edges)

	start := time.Now()
	h, err := build(ctx, base, table, &o)
	o.hooks.OnBuildComplete(ctx, len(table), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	o.logger.Debug("built hierarchy",
		"id", h.id,
		"levels", h.Depth(),
		"strategy", o.strategy,
		"duration", time.Since(start))
	return h, nil
}

func build(ctx context.Context, base *graph.Graph, table Table, o *options) (*Hierarchy, error) {
	if base == nil {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidInput, ErrNilGraph, "build hierarchy")
	}
	if o.strategy != StrategyIndexed && o.strategy != StrategyRescan {
		return nil, apperr.New(apperr.ErrCodeInvalidInput, "unknown strategy %s", o.strategy)
	}
	if err := validate(base, table); err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidMembership, err, "build hierarchy")
	}

	h := &Hierarchy{
		id:       uuid.New(),
		base:     base,
		table:    cloneTable(table),
		levels:   make([]*LevelState, len(table)),
		strategy: o.strategy,
	}

	one := func(i int) error {
		start := time.Now()
		ls, err := buildLevel(base, i, table[i], o.strategy)
		if err != nil {
			return apperr.Wrap(apperr.ErrCodeInternal, err, "build level %d", i)
		}
		h.levels[i] = ls
		o.hooks.OnLevelBuilt(ctx, i, ls.Len(), ls.EdgeCount(), time.Since(start))
		o.logger.Debug("built level",
			"level", i,
			"subgraphs", ls.Len(),
			"nodes", ls.NodeCount(),
			"edges", ls.EdgeCount())
		return nil
	}

	if o.parallel < 2 || len(table) < 2 {
		for i := range table {
			if err := one(i); err != nil {
				return nil, err
			}
		}
		return h, nil
	}

	var eg errgroup.Group
	eg.SetLimit(o.parallel)
	for i := range table {
		eg.Go(func() error { return one(i) })
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return h, nil
}

// cloneTable copies table and each of its levels so later changes by the
// caller do not affect [Verify].
func cloneTable(t Table) Table {
	out := make(Table, len(t))
	for i, lvl := range t {
		out[i] = slices.Clone(lvl)
	}
	return out
}

// buildLevel places the level's nodes into subgraphs, then projects edges.
// Placement must finish before projection because projection tests final
// subgraph membership.
func buildLevel(base *graph.Graph, index int, lvl Level, strategy Strategy) (*LevelState, error) {
	ls := emptyLevel(index)

	// Dense reindexing: parent -> slot by first appearance, with member counts
	// so each subgraph is allocated once at its final size.
	var sizes []int
	for _, a := range lvl {
		if a.Parent == nil {
			continue
		}
		slot, ok := ls.slots[a.Parent]
		if !ok {
			slot = len(ls.parents)
			ls.slots[a.Parent] = slot
			ls.parents = append(ls.parents, a.Parent)
			sizes = append(sizes, 0)
		}
		sizes[slot]++
	}

	ls.groups = make([]*graph.Graph, len(ls.parents))
	for slot, p := range ls.parents {
		ls.groups[slot] = graph.NewWithCapacity(graph.Metadata{"parent": p.ID, "level": index}, sizes[slot], 0)
	}

	for _, a := range lvl {
		if a.Parent == nil {
			continue
		}
		slot := ls.slots[a.Parent]
		if err := ls.groups[slot].AddNode(a.Node); err != nil {
			return nil, fmt.Errorf("place %s under %s: %w", a.Node, a.Parent, err)
		}
		ls.members[a.Node] = slot
	}

	var err error
	switch strategy {
	case StrategyRescan:
		err = projectRescan(base, ls)
	default:
		err = projectIndexed(base, ls)
	}
	if err != nil {
		return nil, err
	}
	return ls, nil
}

// projectIndexed emits each base edge into the single subgraph that holds
// both endpoints, if any.
func projectIndexed(base *graph.Graph, ls *LevelState) error {
	var err error
	base.EachEdge(func(e graph.Edge) bool {
		from, ok := ls.members[e.From]
		if !ok {
			return true
		}
		if to, ok := ls.members[e.To]; !ok || to != from {
			return true
		}
		err = ls.groups[from].AddEdge(e)
		return err == nil
	})
	return err
}

// projectRescan checks every base edge against every subgraph.
func projectRescan(base *graph.Graph, ls *LevelState) error {
	for _, sub := range ls.groups {
		var err error
		base.EachEdge(func(e graph.Edge) bool {
			if sub.Contains(e.From) && sub.Contains(e.To) {
				err = sub.AddEdge(e)
			}
			return err == nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
