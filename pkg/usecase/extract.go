package usecase

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// writeZip writes archive bytes to a path derived from template and the run ID,
// so that two artifacts never share a file. An empty template creates a temp file.
func writeZip(template string, runID int64, data []byte) (string, error) {
	if template == "" {
		f, err := os.CreateTemp("", fmt.Sprintf("runfetch-%d-*.zip", runID))
		if err != nil {
			return "", goerr.Wrap(err, "failed to create temporary zip file")
		}
		defer f.Close()

		if _, err := f.Write(data); err != nil {
			return "", goerr.Wrap(err, "failed to write zip file", goerr.V("path", f.Name()))
		}
		return f.Name(), nil
	}

	path := zipPath(template, runID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", goerr.Wrap(err, "failed to create zip directory", goerr.V("path", path))
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", goerr.Wrap(err, "failed to write zip file", goerr.V("path", path))
	}

	return path, nil
}

// zipPath inserts the run ID before the extension: out/artifact.zip -> out/artifact-42.zip
func zipPath(template string, runID int64) string {
	ext := filepath.Ext(template)
	base := strings.TrimSuffix(template, ext)
	return fmt.Sprintf("%s-%d%s", base, runID, ext)
}

// extractZip extracts the archive at zipFile into destDir, overwriting existing files
func extractZip(ctx context.Context, zipFile, destDir string) ([]string, int64, error) {
	logger := ctxlog.From(ctx)

	zipReader, err := zip.OpenReader(zipFile)
	if err != nil {
		return nil, 0, goerr.Wrap(err, "failed to open zip archive", goerr.V("path", zipFile))
	}
	defer zipReader.Close()

	var extractedFiles []string
	var totalSize int64

	for _, file := range zipReader.File {
		if err := extractFile(file, destDir); err != nil {
			return nil, 0, goerr.Wrap(err, "failed to extract file",
				goerr.V("file", file.Name),
				goerr.V("dest", destDir),
			)
		}

		if !file.FileInfo().IsDir() {
			extractedFiles = append(extractedFiles, file.Name)
			totalSize += int64(file.UncompressedSize64)
		}
	}

	logger.Debug("Extracted zip archive",
		"zip_file", zipFile,
		"dest", destDir,
		"file_count", len(extractedFiles),
	)

	return extractedFiles, totalSize, nil
}

// extractFile extracts a single file from ZIP to the destination directory
func extractFile(file *zip.File, destDir string) error {
	// Security check: prevent path traversal attacks
	destPath := filepath.Join(destDir, file.Name)
	root := filepath.Clean(destDir)

	// Root entry such as "./" maps onto destDir itself
	if destPath == root && file.FileInfo().IsDir() {
		return nil
	}
	if !strings.HasPrefix(destPath, root+string(os.PathSeparator)) {
		return goerr.New("invalid file path detected",
			goerr.V("file", file.Name),
			goerr.V("dest", destPath),
		)
	}

	if file.FileInfo().IsDir() {
		return os.MkdirAll(destPath, 0755)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return goerr.Wrap(err, "failed to create parent directories", goerr.V("path", filepath.Dir(destPath)))
	}

	rc, err := file.Open()
	if err != nil {
		return goerr.Wrap(err, "failed to open file in zip", goerr.V("file", file.Name))
	}
	defer rc.Close()

	mode := file.Mode().Perm()
	if mode == 0 {
		mode = 0644
	}

	destFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return goerr.Wrap(err, "failed to create destination file", goerr.V("path", destPath))
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, rc); err != nil {
		return goerr.Wrap(err, "failed to copy file content", goerr.V("path", destPath))
	}

	return nil
}
