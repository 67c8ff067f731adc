// Package demo embeds the built-in demo scripts.
package demo

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roach88/playback/internal/script"
)

//go:embed scripts
var scriptsFS embed.FS

// BuiltinPrefix marks a script reference as a built-in name.
const BuiltinPrefix = "builtin:"

// ErrUnknown is returned for a built-in name that does not exist.
var ErrUnknown = errors.New("unknown built-in script")

// Info describes a built-in script.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Steps       int    `json:"steps"`
	Format      string `json:"format"`
}

// Names returns the built-in script names, sorted.
func Names() []string {
	entries, err := fs.ReadDir(scriptsFS, "scripts")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if _, err := script.FormatFromPath(e.Name()); err != nil {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}

// List loads every built-in and describes it.
func List() ([]Info, error) {
	var out []Info
	for _, name := range Names() {
		file, _ := find(name)
		s, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		format, _ := script.FormatFromPath(file)
		out = append(out, Info{
			Name:        s.Name(),
			Description: s.Description(),
			Steps:       s.Len(),
			Format:      string(format),
		})
	}
	return out, nil
}

// Lookup compiles the built-in script with the given name.
func Lookup(name string) (*script.Script, error) {
	file, ok := find(name)
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknown, name, strings.Join(Names(), ", "))
	}
	data, err := scriptsFS.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read built-in %q: %w", name, err)
	}
	format, err := script.FormatFromPath(file)
	if err != nil {
		return nil, err
	}
	s, err := script.Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("built-in %q: %w", name, err)
	}
	return s, nil
}

// Resolve loads a script reference: "builtin:<name>", a file path, or a
// bare built-in name when no such file exists. Relative paths are resolved
// against dir when dir is not empty.
func Resolve(ref, dir string) (*script.Script, error) {
	if name, ok := strings.CutPrefix(ref, BuiltinPrefix); ok {
		return Lookup(name)
	}
	p := ref
	if dir != "" && !filepath.IsAbs(p) {
		p = filepath.Join(dir, p)
	}
	if _, err := os.Stat(p); err == nil {
		return script.Load(p)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("stat script: %w", err)
	}
	if _, ok := find(ref); ok {
		return Lookup(ref)
	}
	return nil, fmt.Errorf("script %q: no such file or built-in", ref)
}

func find(name string) (string, bool) {
	for _, ext := range []string{".yaml", ".yml", ".cue"} {
		file := path.Join("scripts", name+ext)
		if _, err := fs.Stat(scriptsFS, file); err == nil {
			return file, true
		}
	}
	return "", false
}
