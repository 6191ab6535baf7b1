// Package deps locates the external tools conversions depend on.
//
// Resolution order is a bundled deps directory first, then the system
// PATH, then a few well-known install locations for tools that do not
// register themselves on PATH (LibreOffice). Results are cached for
// the lifetime of the process; invalidation is explicit via ClearCache.
package deps

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/convsuite/convsuite/internal/execx"
)

// Tool names understood by the locator.
const (
	ToolFFmpeg   = "ffmpeg"
	ToolFFprobe  = "ffprobe"
	ToolPandoc   = "pandoc"
	ToolSoffice  = "soffice"
	ToolPdftoppm = "pdftoppm"
)

const versionTimeout = 10 * time.Second

// Info describes one external dependency.
type Info struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Path      string `json:"path,omitempty"`
	Version   string `json:"version,omitempty"`
	Err       string `json:"error,omitempty"`
}

// Locator resolves tool names to executable paths.
type Locator struct {
	depsDir string
	runner  execx.Runner

	mu    sync.Mutex
	cache map[string]Info
}

// NewLocator creates a locator. depsDir points at a directory of
// bundled tools (may be empty or missing).
func NewLocator(depsDir string, runner execx.Runner) *Locator {
	return &Locator{
		depsDir: depsDir,
		runner:  runner,
		cache:   make(map[string]Info),
	}
}

// Resolve returns dependency info for the named tool, computing and
// caching it on first use.
func (l *Locator) Resolve(name string) Info {
	l.mu.Lock()
	defer l.mu.Unlock()

	if info, ok := l.cache[name]; ok {
		return info
	}

	info := l.locate(name)
	l.cache[name] = info
	return info
}

// ClearCache drops all cached resolutions so the next Resolve probes
// the filesystem again.
func (l *Locator) ClearCache() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]Info)
}

// CheckAll resolves every known tool.
func (l *Locator) CheckAll() []Info {
	names := []string{ToolFFmpeg, ToolFFprobe, ToolPandoc, ToolSoffice, ToolPdftoppm}
	infos := make([]Info, 0, len(names))
	for _, name := range names {
		infos = append(infos, l.Resolve(name))
	}
	return infos
}

func (l *Locator) locate(name string) Info {
	info := Info{Name: name}

	path := l.findBundled(name)
	if path == "" {
		if p, err := exec.LookPath(name); err == nil {
			path = p
		}
	}
	if path == "" && name == ToolSoffice {
		path = findSofficeInstall()
	}

	if path == "" {
		info.Err = fmt.Sprintf("%s not found; install it or place it under %s", name, l.depsDir)
		return info
	}

	info.Available = true
	info.Path = path
	info.Version = l.probeVersion(name, path)
	return info
}

// findBundled looks for deps/<tool>/<platform>/<tool> and
// deps/<tool>/<tool>.
func (l *Locator) findBundled(name string) string {
	if l.depsDir == "" {
		return ""
	}
	exeName := name
	if runtime.GOOS == "windows" {
		exeName += ".exe"
	}
	candidates := []string{
		filepath.Join(l.depsDir, name, platformSubdir(), exeName),
		filepath.Join(l.depsDir, name, exeName),
	}
	for _, c := range candidates {
		if fi, err := os.Stat(c); err == nil && !fi.IsDir() {
			return c
		}
	}
	return ""
}

func platformSubdir() string {
	switch runtime.GOOS {
	case "windows":
		return "win"
	case "darwin":
		return "mac"
	default:
		return "linux"
	}
}

// findSofficeInstall checks default LibreOffice install locations.
func findSofficeInstall() string {
	var candidates []string
	switch runtime.GOOS {
	case "windows":
		candidates = []string{
			filepath.Join(os.Getenv("PROGRAMFILES"), "LibreOffice", "program", "soffice.exe"),
			filepath.Join(os.Getenv("PROGRAMFILES(X86)"), "LibreOffice", "program", "soffice.exe"),
		}
	case "darwin":
		home, _ := os.UserHomeDir()
		candidates = []string{
			"/Applications/LibreOffice.app/Contents/MacOS/soffice",
			filepath.Join(home, "Applications/LibreOffice.app/Contents/MacOS/soffice"),
		}
	default:
		candidates = []string{
			"/usr/bin/soffice",
			"/usr/local/bin/soffice",
			"/opt/libreoffice/program/soffice",
			"/snap/bin/libreoffice",
		}
	}
	for _, c := range candidates {
		if fi, err := os.Stat(c); err == nil && !fi.IsDir() {
			return c
		}
	}
	return ""
}

// probeVersion runs the tool's version command and keeps the first
// output line. Best effort only; a tool with an unparseable version is
// still available.
func (l *Locator) probeVersion(name, path string) string {
	args := versionArgs(name)
	if args == nil {
		return ""
	}
	res, err := l.runner.Run(context.Background(), path, args, versionTimeout)
	if err != nil || res == nil {
		return ""
	}
	out := string(res.Stdout)
	if strings.TrimSpace(out) == "" {
		out = string(res.Stderr)
	}
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	if len(line) > 100 {
		line = line[:100]
	}
	return strings.TrimSpace(line)
}

func versionArgs(name string) []string {
	switch name {
	case ToolFFmpeg, ToolFFprobe:
		return []string{"-version"}
	case ToolPandoc, ToolSoffice:
		return []string{"--version"}
	case ToolPdftoppm:
		// pdftoppm prints its version on stderr
		return []string{"-v"}
	}
	return nil
}
