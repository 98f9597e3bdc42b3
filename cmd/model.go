// Package cmd provides command-line interface commands for tahlil.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tahlil/config"
	"tahlil/model"
)

// CLI output formatters
var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
)

// Global flags for model commands
var (
	outputJSON bool
	noColor    bool
	quiet      bool
)

const defaultTimeout = 10 * time.Minute

// NewModelCmd creates the root model command with all subcommands.
func NewModelCmd() *cobra.Command {
	modelCmd := &cobra.Command{
		Use:   "model",
		Short: "Manage the language model package",
		Long: `Manage the pretrained language model package that tahlil needs to run.

Model packages are versioned archives downloaded from a model hub, verified
against per-file checksums and cached under the data directory.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}

	modelCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output in JSON format")
	modelCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	modelCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress non-essential output")

	modelCmd.AddCommand(newDownloadCmd())
	modelCmd.AddCommand(newVerifyCmd())
	modelCmd.AddCommand(newInfoCmd())

	return modelCmd
}

// initManager loads config and builds a model manager for CLI use.
func initManager() (*model.Manager, *config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	mgr := model.NewManager(cfg.GetModelsDir(), cfg.Model.HubURL,
		cfg.Model.DownloadTimeout, zap.NewNop().Sugar())
	return mgr, cfg, nil
}

func outputAsJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newDownloadCmd creates the 'download' subcommand.
func newDownloadCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the configured model package",
		Long:  "Download the model package named in config.yaml from the model hub, verify its checksums and install it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
			defer cancel()

			mgr, cfg, err := initManager()
			if err != nil {
				return err
			}
			name, version := cfg.Model.Name, cfg.Model.Version

			if mgr.IsInstalled(name, version) && !force {
				if outputJSON {
					return outputAsJSON(map[string]string{"status": "already_installed", "model": name, "version": version})
				}
				successColor.Printf("✓ %s@%s is already installed\n", name, version)
				infoColor.Println("Use --force to re-download")
				return nil
			}

			if !quiet && !outputJSON {
				infoColor.Printf("Downloading %s@%s from %s\n", name, version, cfg.Model.HubURL)
			}

			var s *spinner.Spinner
			if !outputJSON && !quiet {
				s = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
				s.Suffix = " Downloading model package..."
				s.Start()
			}

			err = mgr.Download(ctx, name, version)

			if s != nil {
				s.Stop()
			}

			if err != nil {
				errorColor.Fprintf(os.Stderr, "✗ Download failed\n")
				return fmt.Errorf("failed to download %s@%s: %w", name, version, err)
			}

			if outputJSON {
				return outputAsJSON(map[string]string{"status": "installed", "model": name, "version": version})
			}
			successColor.Printf("✓ %s@%s installed\n", name, version)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Re-download even if already installed")

	return cmd
}

// newVerifyCmd creates the 'verify' subcommand.
func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Verify the installed model package",
		Long:  "Check that the installed model package exists and every data file matches its manifest checksum.",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, cfg, err := initManager()
			if err != nil {
				return err
			}
			name, version := cfg.Model.Name, cfg.Model.Version

			if err := mgr.Verify(name, version); err != nil {
				if outputJSON {
					_ = outputAsJSON(map[string]string{"status": "failed", "model": name, "version": version, "error": err.Error()})
					os.Exit(1)
				}
				errorColor.Printf("✗ %s@%s failed verification\n", name, version)
				return err
			}

			if outputJSON {
				return outputAsJSON(map[string]string{"status": "ok", "model": name, "version": version})
			}
			successColor.Printf("✓ %s@%s verified\n", name, version)
			return nil
		},
	}
}

// newInfoCmd creates the 'info' subcommand.
func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show installed model package details",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, cfg, err := initManager()
			if err != nil {
				return err
			}
			name, version := cfg.Model.Name, cfg.Model.Version

			if !mgr.IsInstalled(name, version) {
				if outputJSON {
					return outputAsJSON(map[string]interface{}{"installed": false, "model": name, "version": version})
				}
				warningColor.Printf("%s@%s is not installed\n", name, version)
				infoColor.Println("Run 'tahlil model download' to install it")
				return nil
			}

			manifest, err := model.LoadManifest(mgr.InstallDir(name, version))
			if err != nil {
				return fmt.Errorf("failed to read manifest: %w", err)
			}

			if outputJSON {
				return outputAsJSON(map[string]interface{}{
					"installed":   true,
					"model":       manifest.Name,
					"version":     manifest.Version,
					"language":    manifest.Language,
					"description": manifest.Description,
					"files":       manifest.Files,
					"install_dir": mgr.InstallDir(name, version),
				})
			}

			infoColor.Printf("Model:       %s\n", manifest.Name)
			infoColor.Printf("Version:     %s\n", manifest.Version)
			infoColor.Printf("Language:    %s\n", manifest.Language)
			if manifest.Description != "" {
				infoColor.Printf("Description: %s\n", manifest.Description)
			}
			infoColor.Printf("Install dir: %s\n", mgr.InstallDir(name, version))
			fmt.Println()
			fmt.Printf("%-20s %s\n", "FILE", "SHA256")
			for _, f := range manifest.Files {
				fmt.Printf("%-20s %s\n", f.Name, f.SHA256)
			}
			return nil
		},
	}
}
