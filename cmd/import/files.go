package main

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"travelmap-api/internal/models"
	"travelmap-api/internal/utils"
)

var photoExtensions = []string{".jpg", ".jpeg", ".png", ".heic", ".heif", ".tif", ".tiff"}

// collectUploads reads every photo under dir in lexical order. Content types
// are left empty so the pipeline resolves them from the extension.
func collectUploads(dir string, recursive bool) ([]models.Upload, error) {
	var uploads []models.Upload

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && (!recursive || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !slices.Contains(photoExtensions, strings.ToLower(filepath.Ext(path))) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		uploads = append(uploads, models.Upload{Name: d.Name(), Data: data})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return uploads, nil
}

// fallbackDate parses the -date flag. Empty and "unknown" leave undated
// photos undated.
func fallbackDate(value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	date, err := utils.ParseCaptureDate(value)
	if err != nil {
		return "", err
	}
	if date == models.UnknownDate {
		return "", nil
	}
	return date, nil
}
