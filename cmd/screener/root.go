package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/screener/internal/client"
	"github.com/amishk599/screener/internal/config"
	"github.com/amishk599/screener/internal/gateway"
	"github.com/amishk599/screener/internal/model"
	"github.com/amishk599/screener/internal/retry"
	"github.com/amishk599/screener/internal/store"
	"github.com/amishk599/screener/internal/stream"
	"github.com/amishk599/screener/internal/tui"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "screener",
	Short: "Resume screening against a job description",
	Long: "Screener scores resumes against a job description with a hosted language model.\n" +
		"Model calls go through the proxy gateway (screener serve), which holds the API key.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: SCREENER_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > SCREENER_CONFIG env var > "./config.yaml".
// Without an explicit path, a missing ./config.yaml means environment-only config.
func loadConfig(path string) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	if path == "" {
		path = os.Getenv("SCREENER_CONFIG")
	}
	if path != "" {
		return config.Load(path)
	}
	if _, err := os.Stat("config.yaml"); errors.Is(err, fs.ErrNotExist) {
		return config.FromEnv()
	}
	return config.Load("config.yaml")
}

// setupLogger writes to stderr so command output on stdout stays clean.
func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// silentLogger is used while a TUI owns the terminal; any log output before
// or during the alt-screen corrupts the display.
func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustLoadConfig(logger *slog.Logger) *config.Config {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	return cfg
}

// newService builds the gateway client stack. onFragment, which may be nil,
// receives streamed text as it arrives.
func newService(cfg *config.Config, logger *slog.Logger, onFragment func(string)) *client.Service {
	// No client timeout: streamed replies can run for minutes. Callers bound
	// each call with their context.
	httpClient := &http.Client{}

	var opts []client.Option
	if onFragment != nil {
		opts = append(opts, client.WithFragmentHandler(onFragment))
	}
	c := client.New(cfg.Client.GatewayURL, httpClient, stream.NewDecoder(logger), logger, opts...)

	var caller client.Caller = c
	if cfg.Client.Retries > 0 {
		caller = retry.NewRetryCaller(c, cfg.Client.Retries, cfg.Client.RetryDelay, logger)
	}
	return client.NewService(caller, logger)
}

func gatewayConfig(cfg *config.Config) gateway.Config {
	return gateway.Config{
		APIKey:       cfg.Upstream.APIKey,
		BaseURL:      cfg.Upstream.BaseURL,
		Model:        cfg.Upstream.Model,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		CORSOrigin:   cfg.Server.CORSOrigin,
	}
}

type appStore interface {
	model.HistoryStore
	model.TranscriptStore
	Close() error
}

// openStore opens the SQLite store, or a NopStore when no path is configured.
func openStore(cfg *config.Config) (appStore, error) {
	if cfg.Store.Path == "" {
		return store.NewNopStore(), nil
	}
	return store.NewSQLiteStore(cfg.Store.Path, cfg.Store.HistoryLimit)
}

// jdFlags are the ways a command can be given a job description.
type jdFlags struct {
	text   string
	file   string
	preset string
	pick   bool
}

func (f *jdFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.text, "jd", "", "job description text")
	cmd.Flags().StringVar(&f.file, "jd-file", "", "read the job description from a file")
	cmd.Flags().StringVar(&f.preset, "preset", "", "use a preset job description by title or number")
	cmd.Flags().BoolVar(&f.pick, "pick", false, "choose a preset job description interactively")
	cmd.MarkFlagsMutuallyExclusive("jd", "jd-file", "preset", "pick")
}

// resolve returns the job description the flags point at, or "" if none was given.
func (f *jdFlags) resolve(presets []model.Preset) (string, error) {
	switch {
	case f.text != "":
		return f.text, nil
	case f.file != "":
		data, err := os.ReadFile(f.file)
		if err != nil {
			return "", fmt.Errorf("read job description: %w", err)
		}
		return string(data), nil
	case f.preset != "":
		p, err := findPreset(presets, f.preset)
		if err != nil {
			return "", err
		}
		return p.Description, nil
	case f.pick:
		if len(presets) == 0 {
			return "", errors.New("no presets configured")
		}
		i, err := tui.RunPresetPicker(presets)
		if err != nil {
			return "", fmt.Errorf("preset picker: %w", err)
		}
		if i < 0 {
			return "", errors.New("no preset chosen")
		}
		return presets[i].Description, nil
	}
	return "", nil
}

// findPreset matches a 1-based index or a case-insensitive title.
func findPreset(presets []model.Preset, ref string) (model.Preset, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(presets) {
			return model.Preset{}, fmt.Errorf("preset %d out of range (1-%d)", n, len(presets))
		}
		return presets[n-1], nil
	}
	for _, p := range presets {
		if strings.EqualFold(p.Title, ref) {
			return p, nil
		}
	}
	return model.Preset{}, fmt.Errorf("no preset titled %q", ref)
}
