package driver

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"fortio.org/safecast"
	"golang.org/x/sync/errgroup"

	"github.com/actionc/actionc/internal/cache"
	"github.com/actionc/actionc/internal/config"
	"github.com/actionc/actionc/internal/js_ast"
	"github.com/actionc/actionc/internal/js_parser"
	"github.com/actionc/actionc/internal/js_printer"
	"github.com/actionc/actionc/internal/logger"
	"github.com/actionc/actionc/internal/manifest"
	"github.com/actionc/actionc/internal/server_actions"
)

// The driver runs one parse→transform→print pipeline per input file on a
// bounded worker pool. Each pipeline owns its traversal state and deferred
// log, so the only cross-file coordination is the errgroup and per-index
// result slots. Diagnostics never cancel the build; I/O failures do.

type Options struct {
	// Project configuration. Nil means config.Default().
	Config *config.Config

	// Explicit input files. When empty, Config.Root is scanned with the
	// include patterns instead.
	Files []string

	// Transform cache. Nil disables caching.
	Cache *cache.Cache

	// When true, transformed files are written under Config.OutDir.
	Write bool
}

// FileResult is one file's outcome, in input order.
type FileResult struct {
	// Slash-separated path relative to the scan root. This is the file
	// identity that action ids are derived from.
	Path string

	// Where the transformed file was (or would be) written.
	OutPath string

	Code      string
	HasAction bool
	Actions   []server_actions.Action
	Msgs      []logger.Msg
	Cached    bool
}

type BuildResult struct {
	Files    []FileResult
	Manifest *manifest.Manifest

	// Number of error-kind diagnostics across all files.
	Errors int
}

// input pairs the file identity used in output with the path to read it from.
type input struct {
	prettyPath string
	fsPath     string
}

func Build(ctx context.Context, opts Options) (*BuildResult, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	inputs, err := enumerate(cfg, opts.Files)
	if err != nil {
		return nil, err
	}

	jobs, err := safecast.Conv[int](cfg.Jobs)
	if err != nil {
		return nil, fmt.Errorf("invalid jobs value %d: %w", cfg.Jobs, err)
	}
	if jobs < 1 {
		jobs = 1
	}

	// The input list is sorted before dispatch and every goroutine writes
	// only its own index, so results need no mutex and come out in path
	// order regardless of scheduling.
	results := make([]FileResult, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, max(len(inputs), 1)))

	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			result, err := buildOne(cfg, opts, i, in)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	build := &BuildResult{Files: results}
	actionsByPath := make(map[string][]server_actions.Action)
	for _, result := range results {
		if result.HasAction {
			actionsByPath[result.Path] = result.Actions
		}
		for _, msg := range result.Msgs {
			if msg.Kind == logger.Error {
				build.Errors++
			}
		}
	}
	build.Manifest = manifest.Build(actionsByPath)
	return build, nil
}

func buildOne(cfg *config.Config, opts Options, index int, in input) (FileResult, error) {
	contents, err := os.ReadFile(in.fsPath)
	if err != nil {
		return FileResult{}, fmt.Errorf("failed to read %s: %w", in.fsPath, err)
	}

	result := FileResult{
		Path:    in.prettyPath,
		OutPath: filepath.Join(cfg.OutDir, filepath.FromSlash(in.prettyPath)),
	}

	key := cache.Key(in.prettyPath, string(contents), cfg.Server)
	if payload, ok := opts.Cache.Get(key); ok {
		result.Code = payload.Code
		result.HasAction = payload.HasAction
		result.Actions = payload.Actions
		result.Cached = true
	} else {
		sourceIndex, err := safecast.Conv[uint32](index)
		if err != nil {
			return FileResult{}, err
		}
		log := logger.NewDeferLog()
		source := logger.Source{
			Index:          sourceIndex,
			PrettyPath:     in.prettyPath,
			IdentifierName: js_ast.GenerateNonUniqueNameFromPath(in.prettyPath),
			Contents:       string(contents),
		}
		tree, ok := js_parser.Parse(log, source)
		if ok {
			r := server_actions.Transform(log, source, &tree, server_actions.Config{IsServer: cfg.Server})
			result.HasAction = r.HasAction
			result.Actions = r.Actions
			result.Code = string(js_printer.Print(tree, js_printer.Options{}).JS)
		}
		result.Msgs = log.Done()

		// Only clean transforms are cached so a hit can never hide an error
		if ok && !hasErrors(result.Msgs) {
			if err := opts.Cache.Put(key, &cache.Payload{
				Code:      result.Code,
				HasAction: result.HasAction,
				Actions:   result.Actions,
			}); err != nil {
				return FileResult{}, err
			}
		}
	}

	if opts.Write && !hasErrors(result.Msgs) {
		if err := os.MkdirAll(filepath.Dir(result.OutPath), 0o755); err != nil {
			return FileResult{}, fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := os.WriteFile(result.OutPath, []byte(result.Code), 0o644); err != nil {
			return FileResult{}, fmt.Errorf("failed to write %s: %w", result.OutPath, err)
		}
	}
	return result, nil
}

func hasErrors(msgs []logger.Msg) bool {
	for _, msg := range msgs {
		if msg.Kind == logger.Error {
			return true
		}
	}
	return false
}

// enumerate resolves the build's inputs: explicit files as given, otherwise
// a walk of the config root filtered by the include patterns. The returned
// list is sorted by pretty path for deterministic output.
func enumerate(cfg *config.Config, files []string) ([]input, error) {
	var inputs []input

	if len(files) > 0 {
		for _, file := range files {
			inputs = append(inputs, input{
				prettyPath: filepath.ToSlash(filepath.Clean(file)),
				fsPath:     file,
			})
		}
	} else {
		patterns := make([][]globPart, len(cfg.Include))
		for i, pattern := range cfg.Include {
			patterns[i] = parseGlobPattern(pattern)
		}
		err := filepath.WalkDir(cfg.Root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(cfg.Root, path)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if matchesAny(patterns, rel) {
				inputs = append(inputs, input{prettyPath: rel, fsPath: path})
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", cfg.Root, err)
		}
	}

	sort.Slice(inputs, func(i int, j int) bool {
		return inputs[i].prettyPath < inputs[j].prettyPath
	})
	return inputs, nil
}
