package imagestore

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Archiver keeps one pristine copy of every icon whose stored bytes were
// changed by compression. Writes are best-effort: ingestion never fails
// because the archive disk did.
type Archiver struct {
	dir string
	log *zap.Logger
}

func NewArchiver(dir string, log *zap.Logger) *Archiver {
	return &Archiver{dir: dir, log: log}
}

// SaveOriginal writes the uncompressed bytes under an id-prefixed filename.
// Called only for newly created image rows, so each original is archived
// exactly once.
func (a *Archiver) SaveOriginal(imageID int64, imageName string, data []byte) {
	if a.dir == "" {
		return
	}
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		a.log.Warn("icon archive dir", zap.Error(err))
		return
	}
	path := filepath.Join(a.dir, fmt.Sprintf("%05d-%s", imageID, imageName))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		a.log.Warn("icon archive write", zap.String("path", path), zap.Error(err))
	}
}
