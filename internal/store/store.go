// Package store persists the settings blob produced by the engine.
//
// The engine speaks canonical JSON. FileStore keeps that blob on disk as
// JSON or, for .yaml and .yml paths, converts it to and from YAML. Writes
// go to a temporary file in the same directory which is then renamed over
// the target.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for unknown settings file extensions.
var ErrUnsupportedFormat = errors.New("store: unsupported settings format")

// Store loads and saves a settings blob.
type Store interface {
	// Load returns the stored blob, or nil when nothing is stored yet.
	Load() ([]byte, error)
	// Save replaces the stored blob.
	Save(data []byte) error
}

// Format is an on-disk encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", "":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// FileStore keeps settings in a single file.
type FileStore struct {
	path   string
	format Format
	perm   fs.FileMode
}

// NewFileStore creates a store for path.
func NewFileStore(path string) (*FileStore, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	return &FileStore{path: path, format: format, perm: 0o644}, nil
}

// Path returns the settings file path.
func (s *FileStore) Path() string {
	return s.path
}

// Format returns the on-disk format.
func (s *FileStore) Format() Format {
	return s.format
}

// Load reads the settings file. A missing file yields nil, nil.
func (s *FileStore) Load() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: reading %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	if s.format == FormatYAML {
		out, err := yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("store: %s: %w", s.path, err)
		}
		return out, nil
	}
	return data, nil
}

// Save writes data atomically.
func (s *FileStore) Save(data []byte) error {
	out := data
	if s.format == FormatYAML {
		var err error
		out, err = jsonToYAML(data)
		if err != nil {
			return fmt.Errorf("store: %s: %w", s.path, err)
		}
	}
	return writeAtomic(s.path, out, s.perm)
}

func writeAtomic(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("store: writing %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("store: syncing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("store: replacing %s: %w", path, err)
	}
	tmpName = ""
	return nil
}

// yamlToJSON converts a YAML document to JSON.
func yamlToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// jsonToYAML converts JSON to block-style YAML, keeping key order.
func jsonToYAML(data []byte) ([]byte, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	unstyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// unstyle drops the flow and quoting styles carried over from JSON so the
// encoder picks plain block style.
func unstyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		unstyle(c)
	}
}
