package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// manifestSchema validates manifest.json before anything else in the package
// is trusted. Schema violations surface as a single aggregated error.
const manifestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "version", "language", "files"],
  "properties": {
    "name": {"type": "string", "pattern": "^[a-z][a-z0-9_]*$"},
    "version": {"type": "string", "pattern": "^[0-9]+\\.[0-9]+\\.[0-9]+$"},
    "language": {"type": "string", "minLength": 2, "maxLength": 8},
    "description": {"type": "string"},
    "files": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "sha256"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "sha256": {"type": "string", "pattern": "^[a-f0-9]{64}$"}
        }
      }
    }
  }
}`

// ManifestFile describes one data file inside a model package.
type ManifestFile struct {
	Name   string `json:"name"`
	SHA256 string `json:"sha256"`
}

// Manifest is the metadata record shipped at the root of every model
// package archive.
type Manifest struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Language    string         `json:"language"`
	Description string         `json:"description,omitempty"`
	Files       []ManifestFile `json:"files"`
}

// ParseManifest validates raw manifest bytes against the schema and decodes
// them.
func ParseManifest(raw []byte) (*Manifest, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(manifestSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidManifest, strings.Join(problems, "; "))
	}

	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	return &m, nil
}

// LoadManifest reads and validates manifest.json from an extracted package
// directory.
func LoadManifest(dir string) (*Manifest, error) {
	raw, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	return ParseManifest(raw)
}

// VerifyFiles checks that every file listed in the manifest exists in dir
// and matches its recorded checksum.
func (m *Manifest) VerifyFiles(dir string) error {
	for _, f := range m.Files {
		path := filepath.Join(dir, f.Name)
		sum, err := fileSHA256(path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("%w: %s", ErrMissingDataFile, f.Name)
			}
			return fmt.Errorf("failed to checksum %s: %w", f.Name, err)
		}
		if sum != f.SHA256 {
			return fmt.Errorf("%w: %s (expected %s, got %s)", ErrChecksumMismatch, f.Name, f.SHA256, sum)
		}
	}
	return nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
