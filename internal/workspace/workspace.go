// Package workspace prepares the reproducible experiment directory an
// entry point runs in: a fresh numbered directory under the configured
// output base, filled with the resolved and raw configuration snapshots, a
// module dependency snapshot, a copy of the experiment code, and a
// combined output log. It owns the run's directory lifecycle; the
// configuration core only hands it a run descriptor.
package workspace

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/vk/exprun/internal/config"
	"github.com/vk/exprun/internal/ctxlog"
	"github.com/vk/exprun/internal/fsutil"
	"github.com/vk/exprun/internal/runspec"
	"github.com/vk/exprun/internal/yamlcfg"
)

// OriginalWorkDirEnv is the environment variable the original working
// directory is published under before the process changes into the
// experiment directory, so entry points can still reach files relative to
// where the run was launched.
const OriginalWorkDirEnv = "EXPRUN_CWD"

const (
	resolvedSnapshotFile = "config.yml"
	rawSnapshotFile      = "raw_config.yml"
	modulesSnapshotFile  = "frozen_modules.txt"
	outputLogFile        = "outputs.log"
	debugSegment         = "DEBUG"
	codeExtension        = ".go"
)

// Options configure workspace preparation.
type Options struct {
	// Debug skips the code snapshot and nests the experiment directory
	// under a DEBUG segment.
	Debug bool
	// WorkDir is the process's original working directory.
	WorkDir string
}

// Workspace is a prepared experiment directory. The process working
// directory points inside it until Close.
type Workspace struct {
	// Dir is the experiment directory, e.g. <base>/<name>/exp.3.
	Dir string

	prevDir string
	log     *os.File
}

// Prepare creates the next free experiment directory for the descriptor,
// writes the snapshots, publishes the original working directory, and
// changes into the new directory.
//
// rawPayload and rawRun are the merged-but-unresolved forms; they are
// written alongside the resolved snapshot so a run can later be re-resolved
// with overridden values.
func Prepare(ctx context.Context, desc *runspec.Descriptor, rawPayload config.Payload, rawRun config.RunSection, opts Options) (*Workspace, error) {
	logger := ctxlog.FromContext(ctx)

	dir, err := nextExperimentDir(desc, opts.Debug)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("workspace: creating %s: %w", dir, err)
	}
	logger.Debug("Experiment directory created.", "dir", dir)

	resolvedRun := config.RunSection{
		Main:      desc.Main,
		Name:      desc.Name,
		OutputDir: desc.OutputDir,
		Code:      desc.Code,
	}

	if !opts.Debug {
		codeDir := desc.Code
		if codeDir == "" {
			codeDir = opts.WorkDir
		}
		dest := filepath.Join(dir, filepath.Base(codeDir))
		if err := fsutil.CopyTreeByExtension(codeDir, dest, codeExtension); err != nil {
			return nil, fmt.Errorf("workspace: snapshotting code from %s: %w", codeDir, err)
		}
		// Snapshots point at the experiment directory so a reproduction
		// run uses the copied code, not the live tree.
		resolvedRun.Code = dir
		rawRun.Code = dir
		logger.Debug("Code snapshot written.", "from", codeDir, "to", dest)
	}

	if err := yamlcfg.Save(filepath.Join(dir, resolvedSnapshotFile), desc.Payload, &resolvedRun); err != nil {
		return nil, fmt.Errorf("workspace: writing resolved snapshot: %w", err)
	}
	if err := yamlcfg.Save(filepath.Join(dir, rawSnapshotFile), rawPayload, &rawRun); err != nil {
		return nil, fmt.Errorf("workspace: writing raw snapshot: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, modulesSnapshotFile), []byte(moduleSnapshot()), 0o644); err != nil {
		return nil, fmt.Errorf("workspace: writing module snapshot: %w", err)
	}

	logFile, err := os.Create(filepath.Join(dir, outputLogFile))
	if err != nil {
		return nil, fmt.Errorf("workspace: creating output log: %w", err)
	}

	prevDir := opts.WorkDir
	os.Setenv(OriginalWorkDirEnv, opts.WorkDir)
	if err := os.Chdir(dir); err != nil {
		logFile.Close()
		return nil, fmt.Errorf("workspace: entering %s: %w", dir, err)
	}

	return &Workspace{Dir: dir, prevDir: prevDir, log: logFile}, nil
}

// LogWriter tees run output to stderr and the combined experiment log.
func (w *Workspace) LogWriter() io.Writer {
	return io.MultiWriter(os.Stderr, w.log)
}

// Close restores the original working directory and closes the log.
func (w *Workspace) Close(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Closing workspace.", "dir", w.Dir)

	chdirErr := os.Chdir(w.prevDir)
	closeErr := w.log.Close()
	if chdirErr != nil {
		return chdirErr
	}
	return closeErr
}

// nextExperimentDir picks <base>[/DEBUG]/<name>/exp.N with the first free
// ordinal, so repeated runs of the same experiment never collide.
func nextExperimentDir(desc *runspec.Descriptor, debugMode bool) (string, error) {
	base := desc.OutputDir
	if debugMode {
		base = filepath.Join(base, debugSegment)
	}
	base = filepath.Join(base, desc.Name)

	for i := 0; ; i++ {
		dir := filepath.Join(base, fmt.Sprintf("exp.%d", i))
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return dir, nil
		} else if err != nil {
			return "", fmt.Errorf("workspace: probing %s: %w", dir, err)
		}
	}
}

// moduleSnapshot renders the dependency versions baked into the running
// binary, the closest Go analog of a frozen requirements listing.
func moduleSnapshot() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "no build info available\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", info.Main.Path, info.Main.Version)
	for _, dep := range info.Deps {
		fmt.Fprintf(&b, "%s %s\n", dep.Path, dep.Version)
	}
	return b.String()
}
