// Package docs generates in-code documentation for a project by asking a
// model about each source file: which classes it defines, which methods each
// class has, a docstring per method and a summary per class. A README can be
// generated from the result, and Quality assesses each file against the
// ISO/IEC 25010 quality characteristics.
//
// Every prompt is rendered from fixed templates and file content only, so
// re-running on unchanged code replays the prompt cache.
package docs

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jbctechsolutions/docsmith/internal/application/ports"
	"github.com/jbctechsolutions/docsmith/internal/application/usage"
	"github.com/jbctechsolutions/docsmith/internal/domain/completion"
	domainErrors "github.com/jbctechsolutions/docsmith/internal/domain/errors"
	"github.com/jbctechsolutions/docsmith/internal/infrastructure/logging"
	"github.com/jbctechsolutions/docsmith/internal/infrastructure/tracing"
)

// Completer answers a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (*completion.Completion, error)
}

// Language describes a supported programming language.
type Language struct {
	Name    string // configuration name
	Display string // name used in prompts
	Ext     string // file extension without the dot
}

var languages = map[string]Language{
	"python": {Name: "python", Display: "Python", Ext: "py"},
	"java":   {Name: "java", Display: "Java", Ext: "java"},
}

// LookupLanguage resolves a language by name, ignoring case.
func LookupLanguage(name string) (Language, error) {
	lang, ok := languages[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Language{}, fmt.Errorf("%w: %q", domainErrors.ErrUnsupportedLanguage, name)
	}
	return lang, nil
}

// Option configures an Agent.
type Option func(*Agent)

// WithPrompts replaces the built-in prompt templates.
func WithPrompts(p *Prompts) Option {
	return func(a *Agent) {
		if p != nil {
			a.prompts = p
		}
	}
}

// WithConcurrency sets how many files are documented in parallel.
func WithConcurrency(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(a *Agent) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithTracer sets the tracer used for the run span.
func WithTracer(t *tracing.Tracer) Option {
	return func(a *Agent) {
		if t != nil {
			a.tracer = t
		}
	}
}

// WithCache reports hit and miss counts of c when a run ends.
func WithCache(c ports.PromptCache) Option {
	return func(a *Agent) { a.cache = c }
}

// WithTracker reports token and cost totals of t when a run ends.
func WithTracker(t *usage.Tracker) Option {
	return func(a *Agent) { a.tracker = t }
}

// WithProgress registers fn to be called after each file is documented.
// Calls may come from several goroutines.
func WithProgress(fn func(path string)) Option {
	return func(a *Agent) { a.progress = fn }
}

// Agent documents the source files of one project.
type Agent struct {
	model       Completer
	retriever   *Retriever
	lang        Language
	project     string
	prompts     *Prompts
	concurrency int
	logger      *logging.Logger
	tracer      *tracing.Tracer
	cache       ports.PromptCache
	tracker     *usage.Tracker
	progress    func(path string)
}

// NewAgent creates an agent for the project at target written in language.
func NewAgent(model Completer, target, language string, opts ...Option) (*Agent, error) {
	lang, err := LookupLanguage(language)
	if err != nil {
		return nil, err
	}
	retriever, err := NewRetriever(target)
	if err != nil {
		return nil, err
	}

	a := &Agent{
		model:       model,
		retriever:   retriever,
		lang:        lang,
		project:     filepath.Base(filepath.Clean(target)),
		concurrency: 1,
		logger:      logging.Nop(),
		tracer:      tracing.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.prompts == nil {
		a.prompts = DefaultPrompts()
	}
	return a, nil
}

// Project returns the project name, the last element of the target path.
func (a *Agent) Project() string {
	return a.project
}

// Language returns the language being documented.
func (a *Agent) Language() Language {
	return a.lang
}

// Files lists the project files Run documents.
func (a *Agent) Files() ([]string, error) {
	return a.retriever.Files(a.lang.Ext)
}

// Run documents every source file of the project.
func (a *Agent) Run(ctx context.Context) (*Report, error) {
	var report *Report
	err := a.observe(ctx, func(ctx context.Context) (int, error) {
		r, err := a.run(ctx)
		if err != nil {
			return 0, err
		}
		report = r
		return len(r.Files), nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// observe wraps one pass over the project in a run span and run logs.
// fn returns the number of files it processed.
func (a *Agent) observe(ctx context.Context, fn func(context.Context) (int, error)) error {
	if logging.RunID(ctx) == "" {
		ctx = logging.WithRunID(ctx, logging.NewRunID())
	}
	start := time.Now()
	ctx, span := a.tracer.StartRunSpan(ctx, a.project, a.lang.Name)
	logging.LogRunStart(ctx, a.logger, a.project, a.lang.Name, a.cache != nil && a.cache.Enabled())

	files, err := fn(ctx)
	if err != nil {
		logging.LogRunFailed(ctx, a.logger, err, time.Since(start))
		span.EndWithError(err)
		return err
	}

	span.SetFileCount(files)
	var hits, misses int64
	if a.cache != nil {
		stats := a.cache.Stats()
		hits, misses = stats.Hits, stats.Misses
		span.SetCacheStats(hits, misses)
	}
	if a.tracker != nil {
		s := a.tracker.Summary()
		span.SetTotalTokens(s.Cost.TotalInputTokens, s.Cost.TotalOutputTokens)
		span.SetCost(s.Cost.TotalCost)
	}
	span.End()
	logging.LogRunComplete(ctx, a.logger, files, time.Since(start), hits, misses)
	return nil
}

func (a *Agent) run(ctx context.Context) (*Report, error) {
	files, err := a.Files()
	if err != nil {
		return nil, err
	}

	docs := make([]FileDoc, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, path := range files {
		g.Go(func() error {
			doc, err := a.DocumentFile(gctx, path)
			if err != nil {
				return err
			}
			docs[i] = doc
			if a.progress != nil {
				a.progress(path)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Report{
		Project:  a.project,
		Language: a.lang.Name,
		Files:    docs,
	}, nil
}

// DocumentFile documents the project file path (relative to the root).
func (a *Agent) DocumentFile(ctx context.Context, path string) (FileDoc, error) {
	ctx = logging.WithFile(ctx, path)
	ctx, span := a.tracer.StartFileSpan(ctx, path)

	doc, err := a.documentFile(ctx, path)
	if err != nil {
		span.EndWithError(err)
		return doc, err
	}
	span.SetSymbols(len(doc.Classes), doc.Symbols())
	span.End()
	return doc, nil
}

func (a *Agent) documentFile(ctx context.Context, path string) (FileDoc, error) {
	doc := FileDoc{Path: path}

	code, err := a.retriever.Read(path)
	if err != nil {
		return doc, err
	}
	if strings.TrimSpace(code) == "" {
		doc.Empty = true
		doc.Note = EmptyFileNote
		return doc, nil
	}
	a.logger.DebugContext(ctx, "documenting file")

	classes, err := a.extractClasses(ctx, code)
	if err != nil {
		return doc, fmt.Errorf("%s: %w", path, err)
	}

	for _, scope := range append(classes, GlobalScope) {
		methods, err := a.extractMethods(ctx, code, scope)
		if err != nil {
			return doc, fmt.Errorf("%s: %w", path, err)
		}

		cd := ClassDoc{Name: scope, Methods: make([]MethodDoc, 0, len(methods))}
		for _, method := range methods {
			d, err := a.documentMethod(ctx, code, scope, method)
			if err != nil {
				return doc, fmt.Errorf("%s: %s.%s: %w", path, scope, method, err)
			}
			cd.Methods = append(cd.Methods, MethodDoc{Name: method, Doc: d})
		}
		doc.Classes = append(doc.Classes, cd)
	}

	for i := range doc.Classes {
		if doc.Classes[i].Name == GlobalScope {
			continue
		}
		summary, err := a.documentClass(ctx, doc.Classes[i])
		if err != nil {
			return doc, fmt.Errorf("%s: %s: %w", path, doc.Classes[i].Name, err)
		}
		doc.Classes[i].Summary = &summary
	}

	return doc, nil
}

// Readme generates a README from a finished report and stores it on report.
func (a *Agent) Readme(ctx context.Context, report *Report) (Doc, error) {
	prompt, err := a.prompts.Render(PromptReadme, readmeData{
		Language: a.lang.Display,
		Project:  report.Project,
		Files:    report.Files,
	})
	if err != nil {
		return Doc{}, err
	}
	d, err := a.ask(ctx, prompt)
	if err != nil {
		return Doc{}, err
	}
	report.Readme = &d
	return d, nil
}

func (a *Agent) extractClasses(ctx context.Context, code string) ([]string, error) {
	prompt, err := a.prompts.Render(PromptExtractClasses, sourceData{
		Language:   a.lang.Display,
		SourceCode: code,
	})
	if err != nil {
		return nil, err
	}
	d, err := a.ask(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return uniqueNames(d.Text), nil
}

func (a *Agent) extractMethods(ctx context.Context, code, class string) ([]string, error) {
	prompt, err := a.prompts.Render(PromptExtractMethods, sourceData{
		Language:   a.lang.Display,
		SourceCode: code,
		ClassName:  class,
	})
	if err != nil {
		return nil, err
	}
	d, err := a.ask(logging.WithSymbol(ctx, class), prompt)
	if err != nil {
		return nil, err
	}
	return uniqueNames(d.Text), nil
}

func (a *Agent) documentMethod(ctx context.Context, code, class, method string) (Doc, error) {
	prompt, err := a.prompts.Render(PromptDocumentMethod, sourceData{
		Language:   a.lang.Display,
		SourceCode: code,
		ClassName:  class,
		MethodName: method,
	})
	if err != nil {
		return Doc{}, err
	}
	return a.ask(logging.WithSymbol(ctx, class+"."+method), prompt)
}

func (a *Agent) documentClass(ctx context.Context, class ClassDoc) (Doc, error) {
	prompt, err := a.prompts.Render(PromptDocumentClass, classData{
		Language:  a.lang.Display,
		ClassName: class.Name,
		Methods:   class.Methods,
	})
	if err != nil {
		return Doc{}, err
	}
	return a.ask(logging.WithSymbol(ctx, class.Name), prompt)
}

// ask completes prompt and unwraps the JSON payload the prompts request.
func (a *Agent) ask(ctx context.Context, prompt string) (Doc, error) {
	comp, err := a.model.Complete(ctx, prompt)
	if err != nil {
		return Doc{}, err
	}
	p := completion.ParsePayload(comp.Content)
	return Doc{Text: p.Payload, Reasoning: p.Reasoning}, nil
}

// uniqueNames splits a ';'-separated reply, dropping duplicates.
func uniqueNames(reply string) []string {
	items := completion.SplitList(reply)
	seen := make(map[string]bool, len(items))
	names := items[:0]
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			names = append(names, item)
		}
	}
	return names
}
