package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/rs/zerolog"

	"symbolcut/internal/batch"
	"symbolcut/internal/config"
	"symbolcut/internal/isolate"
	"symbolcut/internal/logger"
	"symbolcut/internal/raster"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var (
		inPath  = flag.String("in", "", "input image file or directory")
		outDir  = flag.String("out", "out", "output directory for isolated PNGs")
		cfgPath = flag.String("config", "", "optional YAML options file")
		workers = flag.Int("workers", 0, "worker pool size (0 = all cores)")
		force   = flag.Bool("force", false, "process even when the border heuristic says skip")
		timeout = flag.Duration("timeout", 10*time.Second, "per-image wall clock budget")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *inPath == "" {
		return fmt.Errorf("usage: symbolcut -in <file|dir> [-out dir]")
	}

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := logger.NewConsole(level)

	opts := config.Default()
	if *cfgPath != "" {
		var err error
		opts, err = config.Load(*cfgPath)
		if err != nil {
			return err
		}
	}

	pipe, err := isolate.New(opts, log)
	if err != nil {
		return err
	}

	files, err := collectInputs(*inPath)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no images found under %s", *inPath)
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	items := make([]batch.Item, 0, len(files))
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		img, _, err := raster.Decode(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		items = append(items, batch.Item{Name: filepath.Base(path), Image: img, Force: *force})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := batch.NewRunner(pipe, log, *workers, *timeout)
	token := runner.NextToken()

	bar := pb.StartNew(len(items))
	var writeErr error
	summary := runner.Process(ctx, token, items, func(index int, res isolate.Result) {
		defer bar.Increment()
		name := items[index].Name
		target := filepath.Join(*outDir, strings.TrimSuffix(name, filepath.Ext(name))+".png")
		if err := writePNG(target, res.Image); err != nil && writeErr == nil {
			writeErr = err
		}
	})
	bar.Finish()
	if writeErr != nil {
		return writeErr
	}

	log.Info("cli", "done", map[string]interface{}{
		"job":       summary.Job.String(),
		"processed": summary.Processed,
		"skipped":   summary.Skipped,
		"fallbacks": summary.Fallbacks,
	})
	return nil
}

func collectInputs(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read input directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg", ".gif":
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	return files, nil
}

func writePNG(path string, img *image.NRGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := raster.EncodePNG(f, img); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
