// Package qr renders deposit addresses as QR code images for the
// messenger transport.
package qr

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	qrcode "github.com/skip2/go-qrcode"
)

// Generator writes QR images into a scratch directory and removes them
// after a fixed delay.
type Generator struct {
	dir string
	log *slog.Logger
}

// NewGenerator builds a Generator writing into dir, defaulting to the
// OS temp directory.
func NewGenerator(dir string, log *slog.Logger) *Generator {
	if dir == "" {
		dir = os.TempDir()
	}
	if log == nil {
		log = slog.Default()
	}

	return &Generator{dir: dir, log: log}
}

// Generate renders content into <dir>/<name>.png and returns the path.
func (g *Generator) Generate(content, name string) (string, error) {
	path := filepath.Join(g.dir, name+".png")
	if err := qrcode.WriteFile(content, qrcode.High, 256, path); err != nil {
		return "", err
	}
	return path, nil
}

// ScheduleCleanup deletes the file after the delay; long enough for the
// transport to finish reading it.
func (g *Generator) ScheduleCleanup(path string, after time.Duration) {
	time.AfterFunc(after, func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			g.log.Warn("failed to remove qr image", slog.String("path", path), slog.Any("error", err))
			return
		}
		g.log.Debug("qr image removed", slog.String("path", path))
	})
}
