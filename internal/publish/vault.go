package publish

import (
	"bytes"
	"context"
	"embed"
	"path/filepath"
	"text/template"

	"github.com/cockroachdb/errors"

	"memoryatlas/internal/fileutil"
)

const (
	// IndexFilename is the Dataview dashboard at the top of the atlas folder.
	IndexFilename = "_Index.md"
	// AboutFilename documents the pipeline inside the vault.
	AboutFilename = "_About.md"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// WriteIndex regenerates the dashboard from current store statistics.
func (p *Publisher) WriteIndex(ctx context.Context) (string, error) {
	stats, err := p.store.Stats(ctx)
	if err != nil {
		return "", errors.Wrap(err, "load stats for index")
	}
	path := filepath.Join(p.cfg.Vault.AtlasDir, IndexFilename)
	err = p.writeTemplate(path, "index.md.tmpl", map[string]any{
		"Stats":  stats,
		"Folder": p.cfg.NoteRelativePrefix(),
	})
	return path, err
}

// WriteAbout writes the pipeline description note.
func (p *Publisher) WriteAbout() (string, error) {
	path := filepath.Join(p.cfg.Vault.AtlasDir, AboutFilename)
	err := p.writeTemplate(path, "about.md.tmpl", map[string]any{
		"NotesFolder":    p.cfg.NoteRelativePrefix() + "/",
		"DataDir":        p.cfg.Paths.DataDir,
		"TranscriptsDir": p.cfg.Paths.TranscriptsDir,
		"DBPath":         p.cfg.Paths.DBPath,
		"JSONLPath":      p.cfg.Paths.JSONLPath,
	})
	return path, err
}

func (p *Publisher) writeTemplate(path, name string, data any) error {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return errors.Wrapf(ErrRender, "render %s: %v", name, err)
	}
	if err := fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrapf(err, "write %s", filepath.Base(path))
	}
	return nil
}
