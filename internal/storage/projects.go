package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Tiliavir/project-time/internal/model"
)

// ProjectList is the set of user-defined project names, kept in projects.json.
type ProjectList struct {
	path string
}

// NewProjectList returns the project list stored below base.
func NewProjectList(base string) *ProjectList {
	return &ProjectList{path: filepath.Join(base, "projects.json")}
}

// Names returns the user-defined projects sorted case-insensitively.
func (l *ProjectList) Names() ([]string, error) {
	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading project list: %w", err)
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("corrupt project list %s: %w", l.path, err)
	}
	sortNames(names)
	return names, nil
}

// Add registers name. Reserved names and duplicates are rejected.
func (l *ProjectList) Add(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("project name must not be empty")
	}
	if model.IsSystemProject(name) {
		return fmt.Errorf("%q is a reserved project", name)
	}
	names, err := l.Names()
	if err != nil {
		return err
	}
	if slices.Contains(names, name) {
		return fmt.Errorf("project %q already exists", name)
	}
	return l.save(append(names, name))
}

// Remove drops name from the list. Unknown names are ignored.
func (l *ProjectList) Remove(name string) error {
	names, err := l.Names()
	if err != nil {
		return err
	}
	return l.save(slices.DeleteFunc(names, func(n string) bool { return n == name }))
}

// All returns the system projects followed by the user-defined ones.
func (l *ProjectList) All() ([]string, error) {
	names, err := l.Names()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(model.SystemProjects)+len(names))
	for _, p := range model.SystemProjects {
		out = append(out, p.Name)
	}
	return append(out, names...), nil
}

func (l *ProjectList) save(names []string) error {
	sortNames(names)
	if err := os.MkdirAll(filepath.Dir(l.path), 0o700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	data, err := json.MarshalIndent(names, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling project list: %w", err)
	}
	tmpPath := l.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("writing project list: %w", err)
	}
	if err := os.Rename(tmpPath, l.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("saving project list: %w", err)
	}
	return nil
}

func sortNames(names []string) {
	slices.SortFunc(names, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
}
