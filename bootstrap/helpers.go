package bootstrap

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"tahlil/config"
	"tahlil/model"
)

// DataDirectories defines the paths that need to exist for tahlil to run.
type DataDirectories struct {
	Base   string // Base data directory (default: ./data)
	Models string // Model package directory
	SQLite string // Analysis history database path
}

// DataDirectoriesFromConfig creates DataDirectories from configuration.
func DataDirectoriesFromConfig(cfg *config.Config) DataDirectories {
	return DataDirectories{
		Base:   cfg.GetDataDir(),
		Models: cfg.GetModelsDir(),
		SQLite: cfg.GetSQLitePath(),
	}
}

// EnsureDataDirectories creates required data directories with proper
// permissions. Every failure here is fatal in every startup mode: a
// service that cannot write its data directory cannot load a model either.
func EnsureDataDirectories(dirs DataDirectories, sugar *zap.SugaredLogger) error {
	directoriesToCreate := []string{dirs.Base, dirs.Models, filepath.Dir(dirs.SQLite)}

	for _, dir := range directoriesToCreate {
		absPath, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("failed to resolve absolute path for %s: %w", dir, err)
		}

		if err := os.MkdirAll(absPath, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w\n"+
				"  Remediation: Ensure the parent directory exists and is writable\n"+
				"  For Docker: Check volume mount permissions\n"+
				"  For bare metal: Run 'mkdir -p %s && chmod 755 %s'", dir, err, absPath, absPath)
		}

		// Verify write permissions
		testFile := filepath.Join(absPath, ".tahlil_write_test")
		if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
			return fmt.Errorf("directory %s is not writable: %w\n"+
				"  Remediation: Check file system permissions\n"+
				"  For Docker: Ensure volume is mounted with write access\n"+
				"  For bare metal: Run 'chmod -R u+w %s'", dir, err, absPath)
		}
		os.Remove(testFile)

		sugar.Infow("Data directory ready", "path", absPath)
	}

	sugar.Info("All data directories verified")
	return nil
}

// ClassifyModelError turns model loading failures into actionable messages.
func ClassifyModelError(err error, name, version, hubURL string) string {
	if err == nil {
		return ""
	}

	coord := fmt.Sprintf("%s@%s", name, version)

	if errors.Is(err, model.ErrNotInstalled) {
		return fmt.Sprintf("Model package %s is not installed.\n"+
			"  Remediation:\n"+
			"  - Run 'tahlil model download' to fetch it from %s\n"+
			"  - Or set model.auto_download: true in config.yaml\n"+
			"  - Check TAHLIL_DATA_PATHS_MODELS_DIR points at the right directory", coord, hubURL)
	}

	if errors.Is(err, model.ErrChecksumMismatch) || errors.Is(err, model.ErrMissingDataFile) {
		return fmt.Sprintf("Model package %s is corrupted.\n"+
			"  Possible causes:\n"+
			"  - An interrupted download left a partial install\n"+
			"  - Files were modified after installation\n"+
			"  Remediation:\n"+
			"  - Remove the install directory and run 'tahlil model download' again\n"+
			"  - Verify with 'tahlil model verify'", coord)
	}

	if errors.Is(err, model.ErrDownloadFailed) {
		return fmt.Sprintf("Failed to download model package %s from %s.\n"+
			"  Remediation:\n"+
			"  - Check network connectivity to the model hub\n"+
			"  - Verify model.hub_url in config.yaml\n"+
			"  - Check the model name and version exist on the hub", coord, hubURL)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Sprintf("Timed out fetching model package %s from %s.\n"+
			"  Remediation:\n"+
			"  - Increase model.download_timeout in config.yaml\n"+
			"  - Check network latency to the model hub", coord, hubURL)
	}

	return fmt.Sprintf("Failed to load model package %s: %v\n"+
		"  Remediation:\n"+
		"  - Run 'tahlil model verify' for details\n"+
		"  - Re-download with 'tahlil model download'", coord, err)
}

// ClassifyStorageError turns SQLite open failures into actionable messages.
func ClassifyStorageError(err error, dbPath string) string {
	if err == nil {
		return ""
	}

	errStr := err.Error()
	absPath, _ := filepath.Abs(dbPath)
	parentDir := filepath.Dir(absPath)

	if containsIgnoreCase(errStr, "permission denied") || containsIgnoreCase(errStr, "access denied") {
		return fmt.Sprintf("Permission denied accessing history database at %s.\n"+
			"  Remediation:\n"+
			"  - Check file permissions: ls -la %s\n"+
			"  - Check directory permissions: ls -la %s\n"+
			"  - For Docker: Ensure volume is mounted with proper user permissions", absPath, absPath, parentDir)
	}

	if containsIgnoreCase(errStr, "database is locked") || containsIgnoreCase(errStr, "SQLITE_BUSY") {
		return fmt.Sprintf("History database at %s is locked by another process.\n"+
			"  Remediation:\n"+
			"  - Check for other tahlil processes: ps aux | grep tahlil\n"+
			"  - If a crashed process left a stale lock, remove the -shm and -wal files\n"+
			"  - Check for lock files: ls -la %s*", absPath, absPath)
	}

	if containsIgnoreCase(errStr, "disk full") || containsIgnoreCase(errStr, "no space") || containsIgnoreCase(errStr, "SQLITE_FULL") {
		return fmt.Sprintf("Disk full - cannot write history database at %s.\n"+
			"  Remediation:\n"+
			"  - Free disk space: df -h %s\n"+
			"  - Lower history.retention_days to prune old records", absPath, parentDir)
	}

	return fmt.Sprintf("Failed to open history database at %s: %v\n"+
		"  Remediation:\n"+
		"  - Verify data_paths.sqlite_path in config.yaml\n"+
		"  - Ensure the parent directory exists and is writable", absPath, err)
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
