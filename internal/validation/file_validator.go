package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gwcatalog/internal/errors"
	"gwcatalog/internal/files"
)

// FileValidator checks run inputs and outputs before any event is summarized.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateInputDirectory checks that dir exists and returns how many
// loadable sample files it holds. An empty directory is not an error.
func (v *FileValidator) ValidateInputDirectory(dir string) (int, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("Input directory does not exist",
			slog.String("directory", dir))
		return 0, errors.NewStorageError(fmt.Sprintf("input directory %s does not exist", dir), err)
	}
	if err != nil {
		return 0, errors.NewStorageError(fmt.Sprintf("failed to stat directory %s", dir), err)
	}
	if !info.IsDir() {
		v.logger.Error("Input path is not a directory",
			slog.String("path", dir))
		return 0, errors.NewStorageError(fmt.Sprintf("%s is not a directory", dir), nil)
	}

	count, err := v.CountSampleFiles(dir)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		v.logger.Warn("No sample files found",
			slog.String("directory", dir))
		return 0, nil
	}

	v.logger.Info("Input directory validated",
		slog.String("directory", dir),
		slog.Int("files_found", count))
	return count, nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return errors.NewStorageError(fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	probe, err := os.CreateTemp(dir, ".write_test_*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return errors.NewStorageError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	probe.Close()
	os.Remove(probe.Name())

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// ValidateSampleFile checks that path is a readable sample file in a
// supported format. Office lock files ("~$name.xlsx") are rejected.
func (v *FileValidator) ValidateSampleFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return errors.NewStorageError(fmt.Sprintf("file %s does not exist", path), err)
	}
	if err != nil {
		return errors.NewStorageError(fmt.Sprintf("failed to stat file %s", path), err)
	}
	if info.IsDir() {
		return errors.NewStorageError(fmt.Sprintf("%s is a directory, not a file", path), nil)
	}

	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") {
		v.logger.Warn("Skipping temporary workbook",
			slog.String("file", path))
		return errors.NewParsingError(fmt.Sprintf("file %s is a temporary workbook", base), nil)
	}
	if !files.SupportedExtension(base) {
		return errors.NewParsingError(fmt.Sprintf("file %s is not a supported sample format (extension: %s)",
			base, filepath.Ext(base)), nil)
	}

	f, err := os.Open(path)
	if err != nil {
		return errors.NewStorageError(fmt.Sprintf("file %s is not readable", path), err)
	}
	f.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// CountSampleFiles counts regular files in dir with a supported extension.
func (v *FileValidator) CountSampleFiles(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, errors.NewStorageError(fmt.Sprintf("failed to read directory %s", dir), err)
	}

	count := 0
	for _, entry := range entries {
		if entry.Type().IsRegular() && files.SupportedExtension(entry.Name()) {
			count++
		}
	}
	return count, nil
}
