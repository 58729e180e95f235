package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/udi-speedb/log-parser/internal/engine"
	"github.com/udi-speedb/log-parser/internal/ingest"
	"github.com/udi-speedb/log-parser/internal/model"
	"github.com/udi-speedb/log-parser/internal/output"
	"github.com/udi-speedb/log-parser/internal/render"
)

const (
	countersCSVName        = "counters.csv"
	histogramsCSVName      = "histograms_human_readable.csv"
	toolsHistogramsCSVName = "histograms_tools.csv"
	compactionsCSVName     = "compactions.csv"
)

// run executes one full parse: prepare the run folder, parse the log file,
// and fan the snapshot out to every renderer.
func run(cfg appConfig, logPath string) error {
	runFolder, err := output.NextRunFolder(cfg.OutputParent)
	if err != nil {
		return err
	}

	closeLog, err := setupRunLog(filepath.Join(runFolder, cfg.RunLogName), cfg.Verbose)
	if err != nil {
		return err
	}
	defer closeLog()

	logrus.WithFields(logrus.Fields{
		"log":    logPath,
		"output": runFolder,
	}).Info("starting parse")

	var counterKinds map[string]model.CounterKind
	if cfg.CounterKinds != "" {
		counterKinds, err = engine.LoadCounterKinds(cfg.CounterKinds)
		if err != nil {
			return fmt.Errorf("loading counter kinds: %w", err)
		}
	}

	snap, err := ingest.ParseFile(logPath, ingest.Options{
		MaxLines:        cfg.MaxLines,
		UnrecognizedCap: cfg.UnrecognizedCap,
		CounterKinds:    counterKinds,
	})
	if err != nil {
		return err
	}
	for _, issue := range snap.ParseIssues {
		logrus.Warn(issue)
	}

	if err := writeOutputs(cfg, runFolder, snap); err != nil {
		return err
	}

	fmt.Printf("\nOutput written to: %s\n", runFolder)
	return nil
}

// setupRunLog directs the tool's own diagnostics to a file inside the run
// folder, keeping stdout clean for the report.
func setupRunLog(path string, verbose bool) (func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening run log %s: %w", path, err)
	}

	logrus.SetOutput(f)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}

	return func() { _ = f.Close() }, nil
}

// writeOutputs runs every renderer over the frozen snapshot. The snapshot
// is immutable after Finalize, so the renderers run concurrently.
func writeOutputs(cfg appConfig, runFolder string, snap *model.Snapshot) error {
	var g errgroup.Group

	g.Go(func() error {
		return writeJSONFile(filepath.Join(runFolder, cfg.JSONName), snap)
	})
	g.Go(func() error {
		return writeCSVFile(filepath.Join(runFolder, countersCSVName), snap, render.WriteCountersCSV)
	})
	g.Go(func() error {
		return writeCSVFile(filepath.Join(runFolder, histogramsCSVName), snap, render.WriteHistogramsCSV)
	})
	g.Go(func() error {
		return writeCSVFile(filepath.Join(runFolder, toolsHistogramsCSVName), snap, render.WriteToolsHistogramsCSV)
	})
	g.Go(func() error {
		return writeCSVFile(filepath.Join(runFolder, compactionsCSVName), snap, render.WriteCompactionsCSV)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	// Console last, after the files exist, so the summary reflects a
	// completed run.
	if err := render.WriteConsole(os.Stdout, snap); err != nil {
		return err
	}
	if cfg.ConsoleMode == "long" {
		fmt.Println()
		if err := render.WriteJSON(os.Stdout, snap); err != nil {
			return err
		}
	}
	return nil
}

func writeJSONFile(path string, snap *model.Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	err = render.WriteJSON(f, snap)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	logrus.WithField("file", path).Debug("wrote JSON report")
	return nil
}

// writeCSVFile renders one CSV through fn. Renderers that have nothing to
// report return false and no file is left behind.
func writeCSVFile(path string, snap *model.Snapshot, fn func(w io.Writer, snap *model.Snapshot) (bool, error)) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	wrote, err := fn(f, snap)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if !wrote {
		return os.Remove(path)
	}
	logrus.WithField("file", path).Debug("wrote CSV report")
	return nil
}
