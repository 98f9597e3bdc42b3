package bootstrap

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

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tahlil/model"
)

func packageFiles() map[string][]byte {
	tokens, _ := json.Marshal(map[string]model.TokenEntry{
		"kedi":  {Tag: "Noun", POS: "NOUN", Dep: "nsubj", Lemma: "kedi"},
		"güzel": {Tag: "Adj", POS: "ADJ", Dep: "amod", Lemma: "güzel"},
	})
	entities, _ := json.Marshal([]model.GazetteerEntry{
		{Text: "Ankara", Label: "GPE"},
	})
	return map[string][]byte{
		"tokens.json":   tokens,
		"entities.json": entities,
		"stopwords.txt": []byte("ve\nbir\n"),
		"sentiment.yaml": []byte(`positive: [güzel]
negative: [kötü]
intensifiers:
  çok: 1.5
negations: [değil]
positive_emojis: ["😊"]
negative_emojis: ["😢"]
`),
	}
}

func packageManifest(name, version string, files map[string][]byte) []byte {
	m := model.Manifest{Name: name, Version: version, Language: "tr"}
	for fname, content := range files {
		sum := sha256.Sum256(content)
		m.Files = append(m.Files, model.ManifestFile{Name: fname, SHA256: hex.EncodeToString(sum[:])})
	}
	raw, _ := json.Marshal(m)
	return raw
}

// installPackage writes an extracted model package under modelsDir so startup
// finds it without hitting the hub.
func installPackage(t *testing.T, modelsDir, name, version string) {
	t.Helper()
	dir := filepath.Join(modelsDir, fmt.Sprintf("%s-%s", name, version))
	files := packageFiles()
	require.NoError(t, os.MkdirAll(dir, 0755))
	for fname, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, fname), content, 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), packageManifest(name, version, files), 0644))
}

// packageArchive builds a model package tar.gz for a fake hub to serve.
func packageArchive(t *testing.T, name, version string) []byte {
	t.Helper()
	files := packageFiles()
	files["manifest.json"] = packageManifest(name, version, files)

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

// enterConfigDir writes config.yaml into a fresh temp directory and makes it
// the working directory for the duration of the test.
func enterConfigDir(t *testing.T, configYAML string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(configYAML), 0644))

	viper.Reset()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
		viper.Reset()
	})
	return dir
}

func writeDummyFont(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "test.ttf")
	require.NoError(t, os.WriteFile(path, []byte("ttf"), 0644))
	return path
}

func healthResponse(t *testing.T, app *App) map[string]interface{} {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	app.APIServer.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestNewAppStrictModeFailsWithoutModel(t *testing.T) {
	dir := t.TempDir()
	enterConfigDir(t, fmt.Sprintf(`
startup_mode: strict
data_paths:
  data_dir: %s
model:
  name: tr_boot_test
  version: 1.0.0
  hub_url: http://127.0.0.1:1
  auto_download: false
`, dir))

	_, err := NewApp(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tr_boot_test@1.0.0 is not installed")
	assert.Contains(t, err.Error(), "Remediation")
}

func TestNewAppModelRequiredInGracefulMode(t *testing.T) {
	dir := t.TempDir()
	enterConfigDir(t, fmt.Sprintf(`
startup_mode: graceful
data_paths:
  data_dir: %s
model:
  name: tr_boot_test
  version: 1.0.0
  hub_url: http://127.0.0.1:1
  auto_download: false
`, dir))

	// Graceful mode degrades optional subsystems only; the model stays
	// mandatory.
	_, err := NewApp(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not installed")
}

func TestNewAppStrictModeStartsAllSubsystems(t *testing.T) {
	dir := t.TempDir()
	installPackage(t, filepath.Join(dir, "models"), "tr_boot_test", "1.0.0")
	font := writeDummyFont(t, dir)

	enterConfigDir(t, fmt.Sprintf(`
startup_mode: strict
data_paths:
  data_dir: %s
model:
  name: tr_boot_test
  version: 1.0.0
  hub_url: http://127.0.0.1:1
  auto_download: false
wordcloud:
  font_file: %s
`, dir, font))

	app, err := NewApp(context.Background())
	require.NoError(t, err)
	t.Cleanup(app.Shutdown)

	assert.NotNil(t, app.Pipeline)
	assert.NotNil(t, app.History)
	assert.NotNil(t, app.Retention)
	assert.NotNil(t, app.Cache)
	assert.NotNil(t, app.Renderer)

	body := healthResponse(t, app)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, true, body["history_enabled"])
	assert.Equal(t, true, body["cache_enabled"])
}

func TestNewAppGracefulModeDegradesOptionalSubsystems(t *testing.T) {
	dir := t.TempDir()
	installPackage(t, filepath.Join(dir, "models"), "tr_boot_test", "1.0.0")

	// A directory where the database file should be makes the open fail,
	// and the font path does not exist.
	badDB := filepath.Join(dir, "not-a-file.db")
	require.NoError(t, os.MkdirAll(badDB, 0755))

	enterConfigDir(t, fmt.Sprintf(`
startup_mode: graceful
data_paths:
  data_dir: %s
  sqlite_path: %s
model:
  name: tr_boot_test
  version: 1.0.0
  hub_url: http://127.0.0.1:1
  auto_download: false
cache:
  redis:
    enabled: true
    addr: 127.0.0.1:1
wordcloud:
  font_file: %s
`, dir, badDB, filepath.Join(dir, "missing.ttf")))

	app, err := NewApp(context.Background())
	require.NoError(t, err)
	t.Cleanup(app.Shutdown)

	assert.Nil(t, app.SQLite)
	assert.Nil(t, app.History)
	assert.Nil(t, app.Renderer)
	// The in-process LRU tier still serves when Redis is unreachable.
	require.NotNil(t, app.Cache)

	body := healthResponse(t, app)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, false, body["history_enabled"])
	assert.Equal(t, true, body["cache_enabled"])
}

func TestNewAppDownloadsModelFromHub(t *testing.T) {
	archive := packageArchive(t, "tr_boot_test", "1.0.0")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tr_boot_test-1.0.0.tar.gz", r.URL.Path)
		_, _ = w.Write(archive)
	}))
	defer srv.Close()

	dir := t.TempDir()
	font := writeDummyFont(t, dir)
	t.Setenv("TAHLIL_MODEL_HUB_URL", srv.URL)

	enterConfigDir(t, fmt.Sprintf(`
startup_mode: strict
data_paths:
  data_dir: %s
model:
  name: tr_boot_test
  version: 1.0.0
  auto_download: true
wordcloud:
  font_file: %s
`, dir, font))

	app, err := NewApp(context.Background())
	require.NoError(t, err)
	t.Cleanup(app.Shutdown)

	assert.FileExists(t, filepath.Join(dir, "models", "tr_boot_test-1.0.0", "manifest.json"))

	body := healthResponse(t, app)
	modelInfo, ok := body["model"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "tr_boot_test", modelInfo["name"])
}
