// Command examparse decodes MCQ documents and writes the extracted quiz as JSON.
//
//	examparse -input paper.pdf -output paper.json
//	examparse -batch -dir ./papers -workers 4 -output catalog.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/mind-engage/examsim/internal/decode"
	"github.com/mind-engage/examsim/internal/extract"
)

type fileResult struct {
	File       string          `json:"file"`
	Pages      int             `json:"pages"`
	EmptyPages int             `json:"empty_pages,omitempty"`
	Images     int             `json:"images,omitempty"`
	Result     *extract.Result `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
}

type catalog struct {
	Files          []fileResult `json:"files"`
	TotalQuestions int          `json:"total_questions"`
	Failed         int          `json:"failed"`
}

func main() {
	var (
		input   = flag.String("input", "", "document to parse")
		output  = flag.String("output", "", "write JSON here instead of stdout")
		batch   = flag.Bool("batch", false, "parse every supported file in -dir")
		dir     = flag.String("dir", ".", "directory for -batch")
		verbose = flag.Bool("verbose", false, "log pipeline details")
		workers = flag.Int("workers", runtime.NumCPU(), "parallel files in -batch")
	)
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reg := decode.NewRegistry(decode.Detect())
	ex := extract.New(extract.WithLogger(logger))

	var out any
	switch {
	case *batch:
		files, err := listSupported(reg, *dir)
		if err != nil {
			log.Fatalf("list %s: %v", *dir, err)
		}
		if len(files) == 0 {
			log.Fatalf("no supported files in %s (supported: %v)", *dir, reg.Extensions())
		}
		c, err := parseAll(ctx, reg, ex, files, *workers)
		if err != nil {
			log.Fatalf("batch: %v", err)
		}
		logger.Info("batch done", "files", len(files), "questions", c.TotalQuestions, "failed", c.Failed)
		out = c
	case *input != "":
		fr := parseFile(ctx, reg, ex, *input)
		if fr.Error != "" {
			log.Fatalf("%s: %s", *input, fr.Error)
		}
		out = fr
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err := writeJSON(*output, out); err != nil {
		log.Fatalf("write output: %v", err)
	}
}

func listSupported(reg *decode.Registry, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, err := reg.For(e.Name()); err == nil {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// parseAll parses files concurrently. Per-file failures are recorded in the
// catalog; only cancellation aborts the batch.
func parseAll(ctx context.Context, reg *decode.Registry, ex *extract.Extractor, files []string, workers int) (catalog, error) {
	results := make([]fileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = parseFile(gctx, reg, ex, f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return catalog{}, err
	}
	c := catalog{Files: results}
	for _, r := range results {
		if r.Error != "" {
			c.Failed++
			continue
		}
		c.TotalQuestions += len(r.Result.Questions)
	}
	return c, nil
}

func parseFile(ctx context.Context, reg *decode.Registry, ex *extract.Extractor, path string) fileResult {
	fr := fileResult{File: path}
	f, err := os.Open(path)
	if err != nil {
		fr.Error = err.Error()
		return fr
	}
	defer f.Close()

	doc, err := reg.Decode(ctx, path, f)
	if err != nil {
		fr.Error = err.Error()
		return fr
	}
	fr.Pages, fr.EmptyPages, fr.Images = len(doc.Pages), doc.EmptyPages, doc.Images
	res, err := ex.ExtractPages(doc.Pages)
	if err != nil {
		fr.Error = err.Error()
		return fr
	}
	fr.Result = &res
	return fr
}

func writeJSON(path string, v any) (err error) {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
