package pipeline

import (
	"git.home.luguber.info/inful/mdsite/internal/buildstate"
	"git.home.luguber.info/inful/mdsite/internal/directives"
	"git.home.luguber.info/inful/mdsite/internal/gitinfo"
	"git.home.luguber.info/inful/mdsite/internal/markdown"
	"git.home.luguber.info/inful/mdsite/internal/metrics"
	"git.home.luguber.info/inful/mdsite/internal/publish"
	"git.home.luguber.info/inful/mdsite/internal/render"
	"git.home.luguber.info/inful/mdsite/internal/storage"
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithFS replaces the file system. Defaults to the OS file system.
func WithFS(fsys storage.FS) Option {
	return func(o *Orchestrator) { o.fs = fsys }
}

// WithParser replaces the Markdown parser.
func WithParser(p markdown.Parser) Option {
	return func(o *Orchestrator) { o.parser = p }
}

// WithRenderer replaces the HTML renderer. Render stages and layouts are
// ignored when a renderer is given.
func WithRenderer(r render.Renderer) Option {
	return func(o *Orchestrator) { o.renderer = r }
}

// WithRenderStages sets the body stages of the default renderer.
func WithRenderStages(stages ...render.Stage) Option {
	return func(o *Orchestrator) { o.renderStages = stages }
}

// WithStages replaces the tree stages.
func WithStages(stages ...Stage) Option {
	return func(o *Orchestrator) { o.stages = stages }
}

// WithDirectives adds directive visitors. They win over configured
// directive templates of the same name.
func WithDirectives(table directives.Table) Option {
	return func(o *Orchestrator) { o.table = table }
}

// WithLayouts adds layouts. They win over configured layout templates of
// the same name.
func WithLayouts(layouts render.Layouts) Option {
	return func(o *Orchestrator) { o.layouts = layouts }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithState sets the rebuild cache. The caller keeps ownership.
func WithState(s *buildstate.Store) Option {
	return func(o *Orchestrator) { o.state = s }
}

// WithGitDates sets the source of git-derived modified dates.
func WithGitDates(d *gitinfo.Dates) Option {
	return func(o *Orchestrator) { o.dates = d }
}

// WithEnv replaces os.Getenv for the draft policy.
func WithEnv(getenv func(string) string) Option {
	return func(o *Orchestrator) { o.getenv = getenv }
}

// WithFeedFilter overrides the configured feed types.
func WithFeedFilter(f publish.Filter) Option {
	return func(o *Orchestrator) { o.feedFilter = f }
}

// WithSearchFilter overrides the configured search types.
func WithSearchFilter(f publish.Filter) Option {
	return func(o *Orchestrator) { o.searchFilter = f }
}
