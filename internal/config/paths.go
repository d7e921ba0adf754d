package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the resolved file system locations used by the application.
type Paths struct {
	ExecutableDir string
	WorkingDir    string
	DataFile      string
	LogsDir       string
}

// GetPaths resolves the configured data file and log directory.
// Relative paths are looked up under the working directory first and then
// next to the executable, so both `go run` and a packaged binary work.
func GetPaths(cfg *Config) (*Paths, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	exeDir := wd
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exeDir = filepath.Dir(resolved)
		}
	}

	p := &Paths{
		ExecutableDir: exeDir,
		WorkingDir:    wd,
		DataFile:      resolveFile(cfg.Data.File, wd, exeDir),
		LogsDir:       filepath.Dir(resolveFile(cfg.Logging.FilePath, wd, exeDir)),
	}
	return p, nil
}

// resolveFile returns the first existing candidate, or the working-directory
// candidate when none exists so that "not found" errors name a sensible path.
func resolveFile(path, wd, exeDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	candidates := []string{filepath.Join(wd, path), filepath.Join(exeDir, path)}
	for _, c := range candidates {
		if FileExists(c) {
			return c
		}
	}
	return candidates[0]
}

// EnsureDirectories creates the log directory if it does not exist.
func (p *Paths) EnsureDirectories() error {
	if err := os.MkdirAll(p.LogsDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %v", p.LogsDir, err)
	}
	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs detailed path resolution information for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		return
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("executable", p.ExecutableDir),
			slog.String("working", p.WorkingDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("data",
			slog.String("file", p.DataFile),
			slog.Bool("exists", FileExists(p.DataFile)),
		))
}
