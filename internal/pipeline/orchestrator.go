// Package pipeline drives documents from source files to written HTML and
// derives the site-wide artifacts of a build.
//
// A batch build discovers the content directories, loads every document
// (front matter, tree, type, pathname, metadata), bundles the type assets
// sequentially, then transforms, renders and writes documents in parallel.
// Non-document files are copied afterwards and the feed, sitemap and search
// index are written last.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/mdsite/internal/assets"
	"git.home.luguber.info/inful/mdsite/internal/buildstate"
	"git.home.luguber.info/inful/mdsite/internal/config"
	"git.home.luguber.info/inful/mdsite/internal/directives"
	derrors "git.home.luguber.info/inful/mdsite/internal/foundation/errors"
	"git.home.luguber.info/inful/mdsite/internal/frontmatter"
	"git.home.luguber.info/inful/mdsite/internal/gitinfo"
	"git.home.luguber.info/inful/mdsite/internal/logfields"
	"git.home.luguber.info/inful/mdsite/internal/markdown"
	"git.home.luguber.info/inful/mdsite/internal/meta"
	"git.home.luguber.info/inful/mdsite/internal/metrics"
	"git.home.luguber.info/inful/mdsite/internal/paths"
	"git.home.luguber.info/inful/mdsite/internal/publish"
	"git.home.luguber.info/inful/mdsite/internal/render"
	"git.home.luguber.info/inful/mdsite/internal/storage"
)

// Result summarises one build.
type Result struct {
	BuildID   string
	Documents int
	Written   int
	Skipped   int
	Failed    int
	Assets    int
	Warnings  []error
	Duration  time.Duration
}

// Orchestrator runs builds for one configuration. Build and BuildFile may
// be called repeatedly; calls must not overlap.
type Orchestrator struct {
	cfg *config.Config

	fs           storage.FS
	parser       markdown.Parser
	renderer     render.Renderer
	renderStages []render.Stage
	layouts      render.Layouts
	stages       []Stage
	table        directives.Table
	recorder     metrics.Recorder
	state        *buildstate.Store
	ownsState    bool
	dates        *gitinfo.Dates
	getenv       func(string) string
	feedFilter   publish.Filter
	searchFilter publish.Filter

	types      *meta.TypeResolver
	policy     meta.DraftPolicy
	matcher    Matcher
	configHash string

	// bundle is the accumulator of the last batch build, reused by BuildFile.
	bundle *assets.Bundle
}

// New prepares an orchestrator. Configured layout and directive templates
// are loaded here; the rebuild cache is opened when state is enabled and
// none was given.
func New(cfg *config.Config, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{cfg: cfg}
	for _, opt := range opts {
		opt(o)
	}
	if o.fs == nil {
		o.fs = storage.NewOSFS()
	}
	if o.parser == nil {
		o.parser = markdown.New()
	}
	if o.recorder == nil {
		o.recorder = metrics.NoopRecorder{}
	}
	if o.getenv == nil {
		o.getenv = os.Getenv
	}

	var err error
	if o.types, err = meta.NewTypeResolver(cfg.Types); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryConfig, "invalid type rules").Build()
	}
	if o.policy, err = meta.ParseDraftPolicy(cfg.DraftPolicy); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryConfig, "invalid draft policy").Build()
	}
	o.matcher = Matcher{Include: cfg.Include, Exclude: cfg.Exclude}

	configured, err := directives.LoadTemplates(cfg.Directives)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryConfig, "load directive templates").Build()
	}
	o.table = directives.Merge(configured, o.table)
	if o.stages == nil {
		o.stages = DefaultStages(o.table)
	}

	if o.renderer == nil {
		layouts, err := render.LoadLayouts(cfg.Layouts)
		if err != nil {
			return nil, derrors.WrapError(err, derrors.CategoryConfig, "load layouts").Build()
		}
		for name, l := range o.layouts {
			layouts[name] = l
		}
		o.renderer = &render.HTML{Stages: o.renderStages, Layouts: layouts}
	}

	o.configHash = o.hashConfig()

	if o.state == nil && cfg.State.Enabled {
		if o.state, err = buildstate.Open(cfg.State.Path); err != nil {
			return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "open build state").
				WithContext("path", cfg.State.Path).Build()
		}
		o.ownsState = true
	}
	if o.dates == nil && cfg.GitInfo {
		if o.dates, err = gitinfo.Open(cfg.ContentDir); err != nil {
			slog.Warn("Git dates unavailable", logfields.Path(cfg.ContentDir), logfields.Error(err))
			o.dates = nil
		}
	}
	return o, nil
}

// Close releases the rebuild cache when the orchestrator opened it.
func (o *Orchestrator) Close() error {
	if o.ownsState && o.state != nil {
		return o.state.Close()
	}
	return nil
}

// hashConfig covers the configuration snapshot and the template files it
// names, so editing a layout invalidates the rebuild cache.
func (o *Orchestrator) hashConfig() string {
	h := sha256.New()
	h.Write([]byte(o.cfg.Snapshot()))
	for _, files := range []map[string]string{o.cfg.Layouts, o.cfg.Directives} {
		names := make([]string, 0, len(files))
		for name := range files {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			data, err := o.fs.ReadFile(files[name])
			if err != nil {
				continue
			}
			sum := sha256.Sum256(data)
			fmt.Fprintf(h, "%s=%x\n", name, sum)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// OutputPath is the file a document with pathname is written to.
func OutputPath(outputDir, pathname string) string {
	return filepath.Join(outputDir, filepath.FromSlash(pathname), "index.html")
}

// run tracks the outcome of one build.
type run struct {
	id       string
	start    time.Time
	log      *slog.Logger
	failFast bool

	mu       sync.Mutex
	failures []error
	warnings []error
}

func (r *run) fail(err error) error {
	r.mu.Lock()
	r.failures = append(r.failures, err)
	r.mu.Unlock()
	if r.failFast {
		return err
	}
	return nil
}

func (r *run) warn(errs ...error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, err := range errs {
		if err != nil {
			r.warnings = append(r.warnings, err)
		}
	}
}

func (r *run) err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return errors.Join(r.failures...)
}

func (o *Orchestrator) newRun(ctx context.Context) *run {
	r := &run{id: uuid.NewString(), start: time.Now(), failFast: o.cfg.FailFast}
	if o.state != nil {
		id, err := o.state.BeginBuild(ctx)
		if err != nil {
			slog.Warn("Build journal unavailable", logfields.Error(err))
		} else {
			r.id = id
		}
	}
	r.log = slog.With(logfields.BuildID(r.id))
	return r
}

// Build runs a batch build of every selected source.
func (o *Orchestrator) Build(ctx context.Context) (*Result, error) {
	r := o.newRun(ctx)
	r.log.Info("Build started", logfields.Path(o.cfg.OutputDir))

	sources, err := Discover(o.fs, o.cfg.ContentDirs(), o.matcher)
	if err != nil {
		err = derrors.WrapError(err, derrors.CategoryFileSystem, "discover sources").Build()
		return o.finish(ctx, r, nil, err), err
	}

	var docs []*Document
	var files []Source
	for _, src := range sources {
		if src.IsDocument() {
			docs = append(docs, &Document{SourcePath: src.Rel, Root: src.Dir})
		} else {
			files = append(files, src)
		}
	}
	r.log.Debug("Sources discovered", logfields.Count(len(docs)), slog.Int("files", len(files)))

	stageErr := o.stage("load", func() error {
		return o.parallel(ctx, docs, func(ctx context.Context, d *Document) error {
			if err := o.load(ctx, d); err != nil {
				return r.fail(err)
			}
			return nil
		})
	})

	if stageErr == nil {
		stageErr = o.stage("bundle", func() error { return o.bundleAssets(docs, r) })
	}

	if stageErr == nil {
		stageErr = o.stage("render", func() error {
			return o.parallel(ctx, docs, func(ctx context.Context, d *Document) error {
				if d.Meta == nil {
					return nil
				}
				if err := o.process(ctx, d); err != nil {
					return r.fail(err)
				}
				return nil
			})
		})
	}

	copied := 0
	if stageErr == nil {
		stageErr = o.stage("assets", func() error {
			copier := assets.Copier{FS: o.fs, OutputDir: o.cfg.OutputDir}
			for _, f := range files {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := copier.CopyAsset(f.Dir, f.Rel); err != nil {
					if ferr := r.fail(err); ferr != nil {
						return ferr
					}
					continue
				}
				copied++
			}
			return nil
		})
	}

	if stageErr == nil {
		stageErr = o.stage("publish", func() error { return o.publish(docs, r) })
	}

	res := o.finish(ctx, r, docs, stageErr)
	res.Assets = copied
	if stageErr != nil {
		return res, stageErr
	}
	return res, r.err()
}

// BuildFile rebuilds the single source at path, a file inside one of the
// content directories. Documents reuse the asset bundle of the last batch
// build; other files are copied again. Removed and unselected files are
// ignored.
func (o *Orchestrator) BuildFile(ctx context.Context, path string) (*Result, error) {
	src, ok := o.sourceFor(path)
	if !ok || !o.matcher.Match(src.Rel) {
		slog.Debug("Ignoring file outside content", logfields.Path(path))
		return &Result{}, nil
	}

	full := filepath.Join(src.Dir, filepath.FromSlash(src.Rel))
	if !o.fs.Exists(full) {
		slog.Debug("Source removed", logfields.Path(full))
		if o.state != nil && src.IsDocument() {
			if err := o.state.Forget(ctx, full); err != nil {
				slog.Warn("Forget build state failed", logfields.Path(full), logfields.Error(err))
			}
		}
		return &Result{}, nil
	}

	r := o.newRun(ctx)
	if !src.IsDocument() {
		err := assets.Copier{FS: o.fs, OutputDir: o.cfg.OutputDir}.CopyAsset(src.Dir, src.Rel)
		if err != nil {
			_ = r.fail(err)
		}
		res := o.finish(ctx, r, nil, nil)
		if err == nil {
			res.Assets = 1
		}
		return res, r.err()
	}

	doc := &Document{SourcePath: src.Rel, Root: src.Dir}
	err := o.load(ctx, doc)
	if err == nil {
		err = o.process(ctx, doc)
	}
	if err != nil {
		_ = r.fail(err)
	}
	return o.finish(ctx, r, []*Document{doc}, nil), r.err()
}

func (o *Orchestrator) sourceFor(path string) (Source, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Source{}, false
	}
	for _, dir := range o.cfg.ContentDirs() {
		root, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return Source{Dir: dir, Rel: filepath.ToSlash(rel)}, true
	}
	return Source{}, false
}

func (o *Orchestrator) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	o.recorder.ObserveStageDuration(name, time.Since(start))
	slog.Debug("Stage finished", logfields.Stage(name), logfields.Since(start))
	return err
}

// parallel runs fn for every document with at most GOMAXPROCS in flight.
// The first returned error cancels the rest.
func (o *Orchestrator) parallel(ctx context.Context, docs []*Document, fn func(context.Context, *Document) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, d := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, d)
		})
	}
	return g.Wait()
}

// load reads, formats and parses a document and resolves its metadata.
func (o *Orchestrator) load(_ context.Context, d *Document) error {
	full := filepath.Join(d.Root, filepath.FromSlash(d.SourcePath))
	raw, err := o.fs.ReadFile(full)
	if err != nil {
		return derrors.IOError(full, err).Build()
	}
	if o.cfg.Format {
		if raw, err = o.format(full, raw, d); err != nil {
			return err
		}
	}
	d.Raw = raw

	matter, err := frontmatter.Parse(raw)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryParse, "invalid front matter").
			WithContext("path", full).Build()
	}
	d.Matter = matter.Fields
	d.Body = matter.Body

	if d.Tree, err = o.parser.Parse(d.Body); err != nil {
		return derrors.WrapError(err, derrors.CategoryParse, "parse markdown").
			WithContext("path", full).Build()
	}
	d.advance(Parsed)

	d.Pathname = paths.ResolvePathname(d.SourcePath)
	m, warnings := meta.Build(meta.Input{
		Type:     o.types.Resolve(d.SourcePath, d.Matter),
		Pathname: d.Pathname,
		Site:     o.cfg.Site(),
		Defaults: o.cfg.Defaults,
		Matter:   d.Matter,
		Tree:     d.Tree,
	})
	for _, w := range warnings {
		d.warn(w)
	}
	if m.Modified == nil && o.dates != nil {
		when, ok, err := o.dates.Modified(full)
		switch {
		case err != nil:
			slog.Debug("Git date lookup failed", logfields.Path(full), logfields.Error(err))
		case ok:
			m.Modified = &when
		}
	}
	d.Meta = m
	d.Excluded = m.Excluded(o.policy, o.getenv)

	if d.Fingerprint, err = buildstate.Fingerprint(d.Matter, d.Body); err != nil {
		slog.Debug("Fingerprint failed", logfields.Path(full), logfields.Error(err))
	}
	d.advance(MetadataResolved)
	return nil
}

// format normalises the body of raw and rewrites the source when it
// changed. Front matter is kept byte for byte.
func (o *Orchestrator) format(full string, raw []byte, d *Document) ([]byte, error) {
	fm, body, had, style, err := frontmatter.Split(raw)
	if err != nil || !markdown.NeedsFormat(body) {
		return raw, nil
	}
	formatted := frontmatter.Join(fm, markdown.Format(body), had, style)
	if err := o.fs.WriteFile(full, formatted); err != nil {
		return nil, derrors.IOError(full, err).Build()
	}
	slog.Info("Source reformatted", logfields.Path(full))
	d.warn(derrors.FormattingDriftError(full).Build())
	return formatted, nil
}

// bundleAssets builds the type bundles for the loaded documents and keeps
// the accumulator for BuildFile.
func (o *Orchestrator) bundleAssets(docs []*Document, r *run) error {
	if !o.cfg.BundleEnabled() {
		o.bundle = nil
		return nil
	}
	var types []string
	for _, d := range docs {
		if d.Meta != nil {
			types = append(types, d.Meta.Type)
		}
	}
	b := assets.NewBundle(o.fs, o.cfg.OutputDir, o.cfg.ContentDirs()...)
	for _, kind := range []assets.Kind{assets.Stylesheets, assets.Scripts} {
		if err := assets.BundleAssets(kind, types, o.cfg.Defaults, b); err != nil {
			return err
		}
	}
	r.warn(b.Warnings()...)
	r.log.Debug("Assets bundled", slog.String("bundle", b.String()))
	o.bundle = b
	return nil
}

// process transforms, renders and writes one loaded document.
func (o *Orchestrator) process(ctx context.Context, d *Document) error {
	full := filepath.Join(d.Root, filepath.FromSlash(d.SourcePath))
	if o.bundle != nil {
		o.bundle.Apply(d.Meta)
	}

	tree := d.Tree
	for _, s := range o.stages {
		start := time.Now()
		out, err := s.Apply(tree, d)
		o.recorder.ObserveStageDuration(s.Name(), time.Since(start))
		if err != nil {
			return derrors.WrapError(err, derrors.CategoryBuild, "tree stage failed").
				WithContext("stage", s.Name()).WithContext("path", full).Build()
		}
		if out != nil {
			tree = out
		}
	}
	d.Tree = tree
	d.advance(TreeTransformed)

	d.OutputPath = OutputPath(o.cfg.OutputDir, d.Pathname)
	if o.state != nil && d.Fingerprint != "" && o.fs.Exists(d.OutputPath) {
		unchanged, err := o.state.Unchanged(ctx, full, d.Fingerprint, o.configHash)
		if err != nil {
			slog.Warn("Build state lookup failed", logfields.Path(full), logfields.Error(err))
		} else if unchanged {
			d.Skipped = true
			slog.Debug("Document unchanged", logfields.Path(full))
			return nil
		}
	}

	start := time.Now()
	out, err := o.renderer.Render(tree, d.Meta)
	o.recorder.ObserveStageDuration("html", time.Since(start))
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryRender, "render document").
			WithContext("path", full).Build()
	}
	d.Output = out
	d.advance(Rendered)

	if err := o.fs.WriteFile(d.OutputPath, out); err != nil {
		return derrors.IOError(d.OutputPath, err).Build()
	}
	d.advance(Written)
	slog.Debug("Document written",
		logfields.Path(full),
		logfields.Pathname(d.Pathname),
		logfields.DocType(d.Meta.Type))

	if o.state != nil && d.Fingerprint != "" {
		err := o.state.Record(ctx, buildstate.Entry{
			SourcePath:  full,
			Fingerprint: d.Fingerprint,
			ConfigHash:  o.configHash,
			OutputPath:  d.OutputPath,
		})
		if err != nil {
			slog.Warn("Build state update failed", logfields.Path(full), logfields.Error(err))
		}
	}
	return nil
}

// publish writes the feed, the sitemap and the search index.
func (o *Orchestrator) publish(docs []*Document, r *run) error {
	var pages []publish.Page
	for _, d := range docs {
		if d.State >= TreeTransformed {
			pages = append(pages, publish.Page{Meta: d.Meta, Tree: d.Tree, Excluded: d.Excluded})
		}
	}
	site := o.cfg.Site()

	if site.Feed != nil {
		data, err := publish.Feed(pages, publish.FeedOptions{
			Feed:     site.Feed,
			Host:     site.Host,
			Name:     site.Name,
			Defaults: meta.SelectDefaults(o.cfg.Defaults, meta.GenericType),
			Filter:   o.feedFilter,
		})
		if err := o.writeArtifact("feed", site.Feed.Pathname, data, err, r); err != nil {
			return err
		}
	}

	if o.cfg.SitemapEnabled() {
		data, err := publish.Sitemap(pages, site.Host)
		if err := o.writeArtifact("sitemap", "/sitemap.txt", data, err, r); err != nil {
			return err
		}
	}

	if o.cfg.Search != nil {
		filter := o.searchFilter
		if filter == nil {
			filter = publish.TypeFilter(o.cfg.Search.Types)
		}
		data, err := publish.NewSearchIndex(pages, filter).JSON()
		name := "/" + strings.Trim(o.cfg.Search.OutputDir, "/") + "/index.json"
		if err := o.writeArtifact("search", name, data, err, r); err != nil {
			return err
		}
	}
	return nil
}

// writeArtifact writes one derived artifact below the output directory.
// Warnings from building it skip the artifact; anything else fails it.
func (o *Orchestrator) writeArtifact(name, pathname string, data []byte, buildErr error, r *run) error {
	if buildErr != nil {
		if derrors.IsWarning(buildErr) {
			r.log.Warn("Artifact skipped", slog.String("artifact", name), logfields.Error(buildErr))
			r.warn(buildErr)
			return nil
		}
		return r.fail(buildErr)
	}
	target := filepath.Join(o.cfg.OutputDir, filepath.FromSlash(pathname))
	if err := o.fs.WriteFile(target, data); err != nil {
		return r.fail(derrors.IOError(target, err).Build())
	}
	r.log.Debug("Artifact written", slog.String("artifact", name), logfields.Path(target))
	return nil
}

// finish tallies the documents, records metrics and the build journal.
func (o *Orchestrator) finish(ctx context.Context, r *run, docs []*Document, stageErr error) *Result {
	res := &Result{BuildID: r.id, Documents: len(docs)}
	for _, d := range docs {
		r.warn(d.Warnings...)
		switch {
		case d.Skipped:
			res.Skipped++
			o.recorder.IncDocuments(metrics.ResultSkipped)
		case d.State == Written:
			res.Written++
			o.recorder.IncDocuments(metrics.ResultWritten)
		default:
			res.Failed++
			o.recorder.IncDocuments(metrics.ResultFailed)
		}
	}
	res.Warnings = r.warnings
	for _, w := range res.Warnings {
		o.recorder.IncWarnings(string(derrors.GetCategory(w)))
	}
	res.Duration = time.Since(r.start)
	o.recorder.ObserveBuildDuration(res.Duration)
	o.recorder.SetLastBuild(time.Now())

	buildErr := stageErr
	if buildErr == nil {
		buildErr = r.err()
	}
	if o.state != nil {
		entry := buildstate.Build{
			ID:         r.id,
			StartedAt:  r.start,
			FinishedAt: time.Now(),
			Status:     buildstate.StatusSucceeded,
			Documents:  res.Documents,
			Written:    res.Written,
			Skipped:    res.Skipped,
			Warnings:   len(res.Warnings),
		}
		if buildErr != nil {
			entry.Status = buildstate.StatusFailed
			entry.Error = buildErr.Error()
		}
		if err := o.state.FinishBuild(ctx, entry); err != nil {
			slog.Warn("Build journal update failed", logfields.Error(err))
		}
	}

	attrs := []any{
		logfields.Count(res.Documents),
		slog.Int("written", res.Written),
		slog.Int("skipped", res.Skipped),
		slog.Int("failed", res.Failed),
		slog.Int("warnings", len(res.Warnings)),
		logfields.Since(r.start),
	}
	if buildErr != nil {
		r.log.Error("Build failed", append(attrs, logfields.Error(buildErr))...)
	} else {
		r.log.Info("Build completed", attrs...)
	}
	return res
}
