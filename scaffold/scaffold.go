// Package scaffold creates a demo project for the spacetraveling CLI.
package scaffold

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Templates contains all scaffold template files.
// Files use Go text/template syntax and have a .tmpl suffix.
//
//go:embed all:templates
var Templates embed.FS

const root = "templates"

// Data holds the template variables passed to every scaffold template.
type Data struct {
	ProjectName string
	SiteName    string
	Author      string
}

// NewData derives the template variables from a project name such as
// "my-blog" or "github.com/user/my-blog".
func NewData(name string) Data {
	dir := name
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		dir = name[idx+1:]
	}
	return Data{
		ProjectName: dir,
		SiteName:    toTitle(dir),
		Author:      "spacetraveling",
	}
}

// toTitle converts a hyphenated name to title case: "my-blog" -> "My Blog".
func toTitle(s string) string {
	return cases.Title(language.Und).String(strings.ReplaceAll(s, "-", " "))
}

// Generate writes the project into dir, which must not exist yet, and
// returns the created files relative to dir.
func Generate(dir string, data Data) ([]string, error) {
	if _, err := os.Stat(dir); err == nil {
		return nil, fmt.Errorf("directory %q already exists", dir)
	}

	var created []string
	err := fs.WalkDir(Templates, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		out := strings.TrimSuffix(filepath.Join(dir, rel), ".tmpl")
		if filepath.Base(out) == "dotenv" {
			out = filepath.Join(filepath.Dir(out), ".env.example")
		}

		if d.IsDir() {
			return os.MkdirAll(out, 0o755)
		}

		src, err := Templates.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		tmpl, err := template.New(filepath.Base(path)).Parse(string(src))
		if err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return err
		}

		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create %s: %w", out, err)
		}
		defer f.Close()
		if err := tmpl.Execute(f, data); err != nil {
			return fmt.Errorf("execute template %s: %w", path, err)
		}

		rel, _ = filepath.Rel(dir, out)
		created = append(created, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
