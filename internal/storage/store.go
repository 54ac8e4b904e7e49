// Package storage manages the on-disk layout shared with the inference
// backend: uploaded design documents, check visualizations, and job output
// trees.
package storage

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	uploadsFolder = "uploads"
	checksFolder  = "checks"
	outputsFolder = "outputs"
)

// allowedFolders are the top-level directories that may be served to
// clients. Anything else under the output dir is private.
var allowedFolders = map[string]bool{
	uploadsFolder: true,
	checksFolder:  true,
	outputsFolder: true,
}

// contentTypes maps served file extensions to their media types. Unknown
// extensions fall back to application/octet-stream.
var contentTypes = map[string]string{
	".cif":  "chemical/x-cif",
	".yaml": "application/x-yaml",
	".yml":  "application/x-yaml",
	".json": "application/json",
	".txt":  "text/plain",
	".csv":  "text/csv",
	".pdf":  "application/pdf",
}

// Store persists uploads and resolves artifact paths under a single root
// directory.
type Store struct {
	root string
	log  *logrus.Logger
}

// NewStore creates the storage root and its standard subdirectories.
func NewStore(root string, logger *logrus.Logger) (*Store, error) {
	for _, folder := range []string{uploadsFolder, checksFolder, outputsFolder} {
		if err := os.MkdirAll(filepath.Join(root, folder), 0755); err != nil {
			return nil, fmt.Errorf("creating storage folder %s: %w", folder, err)
		}
	}

	return &Store{root: root, log: logger}, nil
}

// Root returns the storage root directory.
func (s *Store) Root() string {
	return s.root
}

// Save writes an uploaded document into the uploads folder under a unique
// name and returns the stored filename. The original name is reduced to its
// base name so client-supplied paths cannot escape the folder.
func (s *Store) Save(originalName string, data []byte) (string, error) {
	base := baseName(originalName)
	if base == "" {
		base = "file"
	}

	storedName := uuid.New().String() + "_" + base
	target := filepath.Join(s.root, uploadsFolder, storedName)

	if err := os.WriteFile(target, data, 0644); err != nil {
		s.log.WithFields(logrus.Fields{
			"original": originalName,
			"stored":   storedName,
			"error":    err,
		}).Error("Failed to write uploaded file")
		return "", fmt.Errorf("writing upload: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"original": originalName,
		"stored":   storedName,
		"size":     len(data),
	}).Info("File uploaded")

	return storedName, nil
}

// Resolve maps a client-supplied relative path to an absolute path inside
// the storage root and reports the content type to serve it with. Paths
// outside the allowed folders or escaping the root are rejected.
func (s *Store) Resolve(relPath string) (string, string, error) {
	relPath = strings.TrimPrefix(relPath, "/")
	if relPath == "" {
		return "", "", fmt.Errorf("empty file path")
	}

	// Collapse any .. segments before the folder check so traversal cannot
	// smuggle a path out of the allowed folders.
	relPath = path.Clean(relPath)

	parts := strings.Split(relPath, "/")
	if !allowedFolders[parts[0]] {
		return "", "", fmt.Errorf("invalid folder %q: allowed folders are checks, uploads, outputs", parts[0])
	}

	absRoot, err := filepath.Abs(s.root)
	if err != nil {
		return "", "", fmt.Errorf("resolving storage root: %w", err)
	}

	full := filepath.Join(absRoot, filepath.FromSlash(relPath))
	// Containment check against .. traversal after joining.
	if full != absRoot && !strings.HasPrefix(full, absRoot+string(filepath.Separator)) {
		return "", "", fmt.Errorf("invalid file path: must stay within the storage root")
	}

	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", fmt.Errorf("file not found: %s", relPath)
		}
		return "", "", fmt.Errorf("checking file: %w", err)
	}
	if info.IsDir() {
		return "", "", fmt.Errorf("path is not a file: %s", relPath)
	}

	return full, contentTypeFor(parts[len(parts)-1]), nil
}

// UploadPath returns the absolute path of a stored upload.
func (s *Store) UploadPath(storedName string) string {
	return filepath.Join(s.root, uploadsFolder, baseName(storedName))
}

// JobOutputDir returns the output tree for a job.
func (s *Store) JobOutputDir(jobID string) string {
	return filepath.Join(s.root, outputsFolder, jobID)
}

func contentTypeFor(filename string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// baseName strips directory components from either path flavor.
func baseName(name string) string {
	if i := strings.LastIndexAny(name, "/\\"); i >= 0 {
		name = name[i+1:]
	}
	return name
}
