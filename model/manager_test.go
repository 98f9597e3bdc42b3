package model

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fixtureFiles returns the data files of a minimal but complete model
// package.
func fixtureFiles() map[string][]byte {
	tokens, _ := json.Marshal(map[string]TokenEntry{
		"kedi":  {Tag: "Noun", POS: "NOUN", Dep: "nsubj", Lemma: "kedi"},
		"güzel": {Tag: "Adj", POS: "ADJ", Dep: "amod", Lemma: "güzel"},
	})
	entities, _ := json.Marshal([]GazetteerEntry{
		{Text: "Ankara", Label: "GPE"},
	})
	stopwords := []byte("# Turkish stop words\nve\nbir\nbu\n")
	sentiment := []byte(`positive: [güzel, harika]
negative: [kötü]
intensifiers:
  çok: 1.5
negations: [değil]
positive_emojis: ["😊"]
negative_emojis: ["😢"]
`)
	return map[string][]byte{
		"tokens.json":    tokens,
		"entities.json":  entities,
		"stopwords.txt":  stopwords,
		"sentiment.yaml": sentiment,
	}
}

func fixtureManifest(name, version string, files map[string][]byte) []byte {
	m := Manifest{Name: name, Version: version, Language: "tr"}
	for fname, content := range files {
		sum := sha256.Sum256(content)
		m.Files = append(m.Files, ManifestFile{Name: fname, SHA256: hex.EncodeToString(sum[:])})
	}
	raw, _ := json.Marshal(m)
	return raw
}

// writeFixtureDir writes an extracted fixture package to dir.
func writeFixtureDir(t *testing.T, dir, name, version string) {
	t.Helper()
	files := fixtureFiles()
	require.NoError(t, os.MkdirAll(dir, 0755))
	for fname, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, fname), content, 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), fixtureManifest(name, version, files), 0644))
}

// fixtureArchive builds a fixture package tar.gz in memory.
func fixtureArchive(t *testing.T, name, version string) []byte {
	t.Helper()
	files := fixtureFiles()
	files["manifest.json"] = fixtureManifest(name, version, files)

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for fname, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     fname,
			Typeflag: tar.TypeReg,
			Mode:     0644,
			Size:     int64(len(content)),
		}))
		_, err := tw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func newTestManager(t *testing.T, hubURL string) *Manager {
	t.Helper()
	return NewManager(t.TempDir(), hubURL, 10*time.Second, zap.NewNop().Sugar())
}

func TestDownloadInstallsAndVerifies(t *testing.T) {
	archive := fixtureArchive(t, "tr_test", "1.0.0")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tr_test-1.0.0.tar.gz", r.URL.Path)
		_, _ = w.Write(archive)
	}))
	defer srv.Close()

	mgr := newTestManager(t, srv.URL)
	require.NoError(t, mgr.Download(context.Background(), "tr_test", "1.0.0"))
	assert.True(t, mgr.IsInstalled("tr_test", "1.0.0"))
	assert.NoError(t, mgr.Verify("tr_test", "1.0.0"))

	data, err := mgr.Load("tr_test", "1.0.0")
	require.NoError(t, err)
	assert.Equal(t, "tr_test", data.Manifest.Name)
	assert.True(t, data.IsStopword("ve"))

	entry, ok := data.Lookup("kedi")
	require.True(t, ok)
	assert.Equal(t, "NOUN", entry.POS)
}

func TestDownloadHubError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	mgr := newTestManager(t, srv.URL)
	err := mgr.Download(context.Background(), "tr_test", "1.0.0")
	assert.ErrorIs(t, err, ErrDownloadFailed)
	assert.False(t, mgr.IsInstalled("tr_test", "1.0.0"))
}

func TestDownloadRejectsMismatchedManifest(t *testing.T) {
	archive := fixtureArchive(t, "tr_other", "9.9.9")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	}))
	defer srv.Close()

	mgr := newTestManager(t, srv.URL)
	err := mgr.Download(context.Background(), "tr_test", "1.0.0")
	assert.ErrorIs(t, err, ErrInvalidManifest)
	assert.False(t, mgr.IsInstalled("tr_test", "1.0.0"))
}

func TestDownloadRejectsInvalidCoordinates(t *testing.T) {
	mgr := newTestManager(t, "http://hub.invalid")

	assert.ErrorIs(t, mgr.Download(context.Background(), "../evil", "1.0.0"), ErrInvalidName)
	assert.ErrorIs(t, mgr.Download(context.Background(), "tr_test", "latest"), ErrInvalidVersion)
}

func TestVerifyDetectsCorruption(t *testing.T) {
	mgr := newTestManager(t, "http://hub.invalid")
	dir := mgr.InstallDir("tr_test", "1.0.0")
	writeFixtureDir(t, dir, "tr_test", "1.0.0")
	require.NoError(t, mgr.Verify("tr_test", "1.0.0"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "stopwords.txt"), []byte("tampered"), 0644))
	assert.ErrorIs(t, mgr.Verify("tr_test", "1.0.0"), ErrChecksumMismatch)
}

func TestVerifyNotInstalled(t *testing.T) {
	mgr := newTestManager(t, "http://hub.invalid")
	assert.ErrorIs(t, mgr.Verify("tr_test", "1.0.0"), ErrNotInstalled)
}

func TestEnsureDownloadsWhenMissing(t *testing.T) {
	archive := fixtureArchive(t, "tr_test", "1.0.0")
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write(archive)
	}))
	defer srv.Close()

	mgr := newTestManager(t, srv.URL)

	data, err := mgr.Ensure(context.Background(), "tr_test", "1.0.0", true)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", data.Manifest.Version)
	assert.Equal(t, 1, hits)

	// A second Ensure loads the installed copy without refetching.
	_, err = mgr.Ensure(context.Background(), "tr_test", "1.0.0", true)
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
}

func TestEnsureWithoutAutoDownload(t *testing.T) {
	mgr := newTestManager(t, "http://hub.invalid")
	_, err := mgr.Ensure(context.Background(), "tr_test", "1.0.0", false)
	assert.ErrorIs(t, err, ErrNotInstalled)
}

func TestExtractRejectsPathTraversal(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	content := []byte("evil")
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     "../outside.txt",
		Typeflag: tar.TypeReg,
		Mode:     0644,
		Size:     int64(len(content)),
	}))
	_, err := tw.Write(content)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	err = extractTarGz(&buf, t.TempDir())
	assert.ErrorIs(t, err, ErrUnsafeArchive)
}

func TestArchiveURL(t *testing.T) {
	mgr := NewManager(t.TempDir(), "https://hub.example/packages/", time.Minute, zap.NewNop().Sugar())
	assert.Equal(t, "https://hub.example/packages/tr_test-1.2.3.tar.gz", mgr.ArchiveURL("tr_test", "1.2.3"))
}

func TestManifestSchemaValidation(t *testing.T) {
	valid := fixtureManifest("tr_test", "1.0.0", fixtureFiles())
	m, err := ParseManifest(valid)
	require.NoError(t, err)
	assert.Equal(t, "tr", m.Language)

	cases := []struct {
		name string
		raw  string
	}{
		{"missing fields", `{"name": "tr_test"}`},
		{"bad version", `{"name": "tr_test", "version": "v1", "language": "tr", "files": [{"name": "a", "sha256": "` + fmt.Sprintf("%064x", 0) + `"}]}`},
		{"bad checksum", `{"name": "tr_test", "version": "1.0.0", "language": "tr", "files": [{"name": "a", "sha256": "nope"}]}`},
		{"empty files", `{"name": "tr_test", "version": "1.0.0", "language": "tr", "files": []}`},
		{"not json", `{{`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tc.raw))
			assert.ErrorIs(t, err, ErrInvalidManifest)
		})
	}
}
