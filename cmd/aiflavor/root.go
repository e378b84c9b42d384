package main

import (
	"fmt"
	"os"

	"github.com/nao1215/aiflavor/internal/config"
	"github.com/nao1215/aiflavor/internal/database"
	"github.com/nao1215/aiflavor/internal/i18n"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for aiflavor.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aiflavor",
		Short: "Score how AI-generated a website's design looks",
		Long: `aiflavor inspects the rendered design of a website and scores, from 0 to 100,
how strongly it follows the look of AI-generated pages.

Five features are measured: large rounded corners, a purple color scheme,
gradient backgrounds, decorated buttons and AI-related keywords in the text.

By default pages are rendered in headless Chrome. Use --collector static to
fetch and analyze the HTML and CSS without a browser.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: "+config.DefaultConfigFile+" in current or home directory)")
	cmd.PersistentFlags().String("lang", "",
		"Report language: zh-CN or en-US (default: detected from LANG)")
	cmd.PersistentFlags().String("db-dir", "",
		"Directory of the record database (default: "+config.XDGDataDir()+")")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewRecordsCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig builds the configuration for a command: built-in defaults,
// then the configuration file, then the global flags. Command-specific
// flags are applied by the caller, so that flags always win over the file.
//
// An explicitly given --config file must exist. Without --config, a missing
// file is not an error.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	cfg := config.NewConfig()

	path, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	found := config.FindConfigFile(path)
	switch {
	case found != "":
		file, err := config.LoadConfigFile(found)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
		}
		cfg.ApplyFile(file, flags.Changed)
		cfg.ConfigFilePath = found
	case path != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, path)
	}

	if cfg.Verbose, err = flags.GetBool("verbose"); err != nil {
		return nil, err
	}
	if flags.Changed("lang") {
		if cfg.Language, err = flags.GetString("lang"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// resolveLanguage returns the configured language, or the one detected from
// the environment when none is configured.
func resolveLanguage(cfg *config.Config) (i18n.Language, error) {
	if cfg.Language == "" {
		return i18n.Detect(), nil
	}
	lang, err := i18n.Parse(cfg.Language)
	if err != nil {
		return "", fmt.Errorf("invalid --lang: %w", err)
	}
	return lang, nil
}

// openDB opens the record database of cfg.
func openDB(cfg *config.Config) (*database.RecordDB, error) {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}
