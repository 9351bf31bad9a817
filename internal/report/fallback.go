package report

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ════════════════════════════════════════════════════════════════════
// Fallback images: stored raster charts for skills with no plottable data
// ════════════════════════════════════════════════════════════════════

// imageTypes lists the accepted extensions in exact-match priority order.
var imageTypes = []struct {
	ext  string
	mime string
}{
	{".png", "image/png"},
	{".jpg", "image/jpeg"},
	{".jpeg", "image/jpeg"},
	{".gif", "image/gif"},
	{".svg", "image/svg+xml"},
}

// FallbackImage is a stored chart image ready to embed in a report.
type FallbackImage struct {
	Path    string
	MIME    string
	DataURI string
}

// FindFallbackImage looks in dir for an image belonging to skillID.
// An exact "<skillID>.<ext>" file wins; otherwise the first file (by name)
// whose name contains skillID, ignoring case. It returns nil, nil when
// nothing matches or dir does not exist.
func FindFallbackImage(dir, skillID string) (*FallbackImage, error) {
	if dir == "" || !safeStem(skillID) {
		return nil, nil
	}

	for _, it := range imageTypes {
		p := filepath.Join(dir, skillID+it.ext)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return loadImage(p, it.mime)
		}
	}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading image dir %s: %w", dir, err)
	}

	needle := strings.ToLower(skillID)
	// os.ReadDir returns entries sorted by filename.
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		mime := mimeFor(name)
		if mime == "" || !strings.Contains(strings.ToLower(name), needle) {
			continue
		}
		return loadImage(filepath.Join(dir, name), mime)
	}
	return nil, nil
}

func loadImage(path, mime string) (*FallbackImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fallback image: %w", err)
	}
	return &FallbackImage{
		Path:    path,
		MIME:    mime,
		DataURI: "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data),
	}, nil
}

func mimeFor(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	for _, it := range imageTypes {
		if it.ext == ext {
			return it.mime
		}
	}
	return ""
}

// safeStem rejects ids that could escape the image directory.
func safeStem(id string) bool {
	if strings.TrimSpace(id) == "" || strings.Contains(id, "..") {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}
