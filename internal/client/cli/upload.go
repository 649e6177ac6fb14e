package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/wardrive/internal/client/models"
)

// UploadLocal batch-uploads every matching artifact in the local directory to
// the ingestion API. Files whose previous upload failed are re-enqueued; a
// file already uploaded in this session is not sent twice.
func (a *App) UploadLocal(ctx context.Context) error {
	files, err := a.localArtifacts()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		printlnFn("no artifacts matching " + a.config.ArtifactPattern + " in " + a.config.LocalDir)
		return nil
	}

	jobs := a.uploads.Enqueue(files)
	printlnFn(fmt.Sprintf("uploading %d file(s), %d at a time", len(jobs), a.config.UploadConcurrency))

	succeeded, failed := renderUploads(a.uploads.Run(ctx, jobs))
	printlnFn(fmt.Sprintf("uploaded %d, failed %d", succeeded, failed))
	return nil
}

// localArtifacts lists the local files eligible for upload.
func (a *App) localArtifacts() ([]models.LocalFile, error) {
	matches, err := filepath.Glob(filepath.Join(a.config.LocalDir, a.config.ArtifactPattern))
	if err != nil {
		return nil, fmt.Errorf("bad artifact pattern %q: %w", a.config.ArtifactPattern, err)
	}

	files := make([]models.LocalFile, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, models.LocalFile{Path: m, Size: info.Size()})
	}
	return files, nil
}
