// Package model manages pretrained language model packages: versioned
// archives of lookup tables fetched from a model hub, verified by checksum
// and loaded as opaque data. The tables' linguistic content is entirely the
// model publisher's concern.
package model

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// maxDataFileSize caps a single extracted data file to guard against
// decompression bombs.
const maxDataFileSize = 256 * 1024 * 1024

var (
	namePattern    = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	versionPattern = regexp.MustCompile(`^[0-9]+\.[0-9]+\.[0-9]+$`)
)

// Manager downloads, verifies and loads model packages under a local
// models directory.
type Manager struct {
	modelsDir string
	hubURL    string
	client    *http.Client
	logger    *zap.SugaredLogger
}

// NewManager creates a model package manager. hubURL is the base URL
// archives are fetched from; timeout bounds a whole download.
func NewManager(modelsDir, hubURL string, timeout time.Duration, logger *zap.SugaredLogger) *Manager {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Manager{
		modelsDir: modelsDir,
		hubURL:    strings.TrimRight(hubURL, "/"),
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

// InstallDir returns the extraction directory for a package.
func (m *Manager) InstallDir(name, version string) string {
	return filepath.Join(m.modelsDir, fmt.Sprintf("%s-%s", name, version))
}

// ArchiveURL returns the hub URL for a package archive.
func (m *Manager) ArchiveURL(name, version string) string {
	return fmt.Sprintf("%s/%s-%s.tar.gz", m.hubURL, name, version)
}

// IsInstalled reports whether a package has been extracted locally.
// Presence of the manifest is the install marker; integrity is checked at
// load time.
func (m *Manager) IsInstalled(name, version string) bool {
	_, err := os.Stat(filepath.Join(m.InstallDir(name, version), "manifest.json"))
	return err == nil
}

// validateCoordinates rejects package coordinates that could produce
// unexpected paths or URLs.
func validateCoordinates(name, version string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if !versionPattern.MatchString(version) {
		return fmt.Errorf("%w: %q", ErrInvalidVersion, version)
	}
	return nil
}

// Download fetches a package archive from the hub, extracts it and verifies
// the manifest and data file checksums. Extraction goes through a temporary
// directory and the install is an atomic rename, so a failed download never
// leaves a half-installed package behind.
func (m *Manager) Download(ctx context.Context, name, version string) error {
	if err := validateCoordinates(name, version); err != nil {
		return err
	}

	url := m.ArchiveURL(name, version)
	m.logger.Infow("Downloading model package", "name", name, "version", version, "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: hub returned %s for %s", ErrDownloadFailed, resp.Status, url)
	}

	if err := os.MkdirAll(m.modelsDir, 0755); err != nil {
		return fmt.Errorf("failed to create models directory: %w", err)
	}

	tmpDir, err := os.MkdirTemp(m.modelsDir, ".download-*")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	if err := extractTarGz(resp.Body, tmpDir); err != nil {
		return err
	}

	manifest, err := LoadManifest(tmpDir)
	if err != nil {
		return err
	}
	if manifest.Name != name || manifest.Version != version {
		return fmt.Errorf("%w: archive is %s@%s, requested %s@%s",
			ErrInvalidManifest, manifest.Name, manifest.Version, name, version)
	}
	if err := manifest.VerifyFiles(tmpDir); err != nil {
		return err
	}

	dest := m.InstallDir(name, version)
	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("failed to clear install directory: %w", err)
	}
	if err := os.Rename(tmpDir, dest); err != nil {
		return fmt.Errorf("failed to install model package: %w", err)
	}

	m.logger.Infow("Model package installed", "name", name, "version", version, "dir", dest)
	return nil
}

// Verify re-checks a locally installed package against its manifest.
func (m *Manager) Verify(name, version string) error {
	if err := validateCoordinates(name, version); err != nil {
		return err
	}
	if !m.IsInstalled(name, version) {
		return fmt.Errorf("%w: %s@%s", ErrNotInstalled, name, version)
	}
	dir := m.InstallDir(name, version)
	manifest, err := LoadManifest(dir)
	if err != nil {
		return err
	}
	return manifest.VerifyFiles(dir)
}

// Load loads an installed package into memory, verifying checksums.
func (m *Manager) Load(name, version string) (*Data, error) {
	if err := validateCoordinates(name, version); err != nil {
		return nil, err
	}
	if !m.IsInstalled(name, version) {
		return nil, fmt.Errorf("%w: %s@%s", ErrNotInstalled, name, version)
	}
	return LoadData(m.InstallDir(name, version))
}

// Ensure loads a package, downloading it first when it is missing and
// autoDownload is enabled. This is the bootstrap entry point.
func (m *Manager) Ensure(ctx context.Context, name, version string, autoDownload bool) (*Data, error) {
	if !m.IsInstalled(name, version) {
		if !autoDownload {
			return nil, fmt.Errorf("%w: %s@%s (auto_download disabled)", ErrNotInstalled, name, version)
		}
		if err := m.Download(ctx, name, version); err != nil {
			return nil, err
		}
	}
	return m.Load(name, version)
}

// extractTarGz unpacks a gzipped tarball into dest. Entries with absolute
// paths, parent references or anything other than plain files and
// directories are rejected.
func extractTarGz(r io.Reader, dest string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
		}

		name := filepath.Clean(hdr.Name)
		if filepath.IsAbs(name) || strings.HasPrefix(name, "..") ||
			strings.Contains(name, ".."+string(filepath.Separator)) {
			return fmt.Errorf("%w: %q", ErrUnsafeArchive, hdr.Name)
		}
		target := filepath.Join(dest, name)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("failed to create %s: %w", name, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("failed to create %s: %w", name, err)
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", name, err)
			}
			_, err = io.Copy(f, io.LimitReader(tr, maxDataFileSize))
			closeErr := f.Close()
			if err != nil {
				return fmt.Errorf("failed to extract %s: %w", name, err)
			}
			if closeErr != nil {
				return fmt.Errorf("failed to extract %s: %w", name, closeErr)
			}
		default:
			return fmt.Errorf("%w: unsupported entry type for %q", ErrUnsafeArchive, hdr.Name)
		}
	}
}
