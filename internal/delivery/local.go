package delivery

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aristath/healthtrends/internal/modules/trends"
	"github.com/aristath/healthtrends/internal/modules/trends/render"
)

// Console writes the plain-text rendering to a writer, usually stdout.
type Console struct {
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Name() string { return "console" }

func (c *Console) Send(_ context.Context, report *trends.Report) error {
	if _, err := io.WriteString(c.out, render.Text(report)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// File writes the JSON rendering to a path, replacing it atomically.
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Name() string { return "file" }

// Send writes to a temp file in the target directory and renames it into place,
// so readers never observe a partial report.
func (f *File) Send(_ context.Context, report *trends.Report) error {
	data, err := render.JSON(report)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".report-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to move report into place: %w", err)
	}
	return nil
}
