package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"pdfbatch/internal/batch"
	"pdfbatch/internal/config"
	"pdfbatch/internal/executor"
	"pdfbatch/internal/httpclient"
	"pdfbatch/internal/logging"
	"pdfbatch/internal/params"
	"pdfbatch/internal/pdfapi"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Common errors for the application layer.
var (
	ErrConfigNotFound = errors.New("configuration file not found")
	ErrMissingArgs    = errors.New("missing required arguments")
	ErrItemsInvalid   = errors.New("one or more items cannot be built")
)

// EnvPrefix prefixes the environment variables that override flags,
// e.g. PDFBATCH_LOGLEVEL or PDFBATCH_FAILURE_POLICY.
const EnvPrefix = "PDFBATCH"

// --- Interfaces for Testability ---

// configLoader defines the interface for loading configuration.
type configLoader interface {
	Load(filename string) (*config.Config, error)
}

// executorFactory builds the execute capability for one provider.
type executorFactory interface {
	New(providerCfg *config.ProviderConfig, retryCfg config.RetryConfig, creds executor.CredentialResolver) (batch.ExecuteFunc, error)
}

// FileWriter writes the rendered results.
type FileWriter interface {
	WriteFile(filename string, data []byte, perm fs.FileMode) error
}

// --- Default Implementations ---

type defaultConfigLoader struct{}

func (l *defaultConfigLoader) Load(filename string) (*config.Config, error) {
	return config.LoadConfig(filename)
}

type defaultExecutorFactory struct{}

func (f *defaultExecutorFactory) New(providerCfg *config.ProviderConfig, retryCfg config.RetryConfig, creds executor.CredentialResolver) (batch.ExecuteFunc, error) {
	client, err := httpclient.NewClient(providerCfg, retryCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	return executor.New(client, creds, providerCfg.AuthType).Execute, nil
}

type defaultFileWriter struct{}

func (d *defaultFileWriter) WriteFile(filename string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		if info, statErr := os.Stat(dir); statErr == nil && !info.IsDir() {
			return fmt.Errorf("cannot create directory for output file: path '%s' exists but is not a directory", dir)
		}
		return fmt.Errorf("failed to create output directory '%s': %w", dir, err)
	}
	return os.WriteFile(filename, data, perm)
}

// --- AppRunner ---

// AppRunner wires the CLI commands to configuration, the batch runner and output.
type AppRunner struct {
	configLoader    configLoader
	executorFactory executorFactory
	fileWriter      FileWriter
	stdout          io.Writer
	stderr          io.Writer
	v               *viper.Viper
}

// AppRunnerOpts allows configuring the AppRunner's dependencies.
type AppRunnerOpts struct {
	ConfigLoader    configLoader
	ExecutorFactory executorFactory
	FileWriter      FileWriter
	Stdout          io.Writer
	Stderr          io.Writer
}

// NewAppRunner creates an application runner with default dependencies.
func NewAppRunner() *AppRunner {
	return NewAppRunnerWithOpts(AppRunnerOpts{})
}

// NewAppRunnerWithOpts creates an AppRunner allowing dependency injection.
func NewAppRunnerWithOpts(opts AppRunnerOpts) *AppRunner {
	loader := opts.ConfigLoader
	if loader == nil {
		loader = &defaultConfigLoader{}
	}
	factory := opts.ExecutorFactory
	if factory == nil {
		factory = &defaultExecutorFactory{}
	}
	writer := opts.FileWriter
	if writer == nil {
		writer = &defaultFileWriter{}
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	return &AppRunner{
		configLoader:    loader,
		executorFactory: factory,
		fileWriter:      writer,
		stdout:          stdout,
		stderr:          stderr,
	}
}

// Run executes the command line in args.
func (a *AppRunner) Run(ctx context.Context, args []string) error {
	root := a.newRootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// Usage prints the command-line help to the writer.
func (a *AppRunner) Usage(w io.Writer) {
	root := a.newRootCommand()
	root.SetOut(w)
	fmt.Fprint(w, root.UsageString())
}

func (a *AppRunner) newRootCommand() *cobra.Command {
	a.v = viper.New()
	a.v.SetEnvPrefix(EnvPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "pdfbatch",
		Short:         "Merge and split PDFs in batches through a remote PDF API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.SetOutput(a.stderr, a.v.GetBool("log-json"))
			if level := a.v.GetString("loglevel"); level != "" {
				if _, err := logging.ParseLevel(level); err != nil {
					return err
				}
				logging.SetupLogging(level)
			}
			return nil
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().StringP("config", "c", "config.yaml", "YAML configuration file")
	root.PersistentFlags().StringP("loglevel", "l", "", "Logging level (none, error, warn, info, debug); overrides the config file")
	root.PersistentFlags().Bool("log-json", false, "Emit logs as JSON")
	root.PersistentFlags().StringP("provider", "p", "", "Provider name from the config file")
	a.bindFlags(root, true, "config", "loglevel", "log-json", "provider")

	root.AddCommand(a.newRunCommand(), a.newValidateCommand(), a.newVerifyCredentialCommand())
	return root
}

// bindFlags binds each named flag of cmd to the viper key of the same name.
func (a *AppRunner) bindFlags(cmd *cobra.Command, persistent bool, names ...string) {
	flags := cmd.Flags()
	if persistent {
		flags = cmd.PersistentFlags()
	}
	for _, name := range names {
		if err := a.v.BindPFlag(name, flags.Lookup(name)); err != nil {
			logging.Logf(logging.Error, "unable to bind flag '%s': %v", name, err)
		}
	}
}

// loadConfig loads the configuration named by --config and applies its
// logging settings unless a flag or environment variable overrides them.
func (a *AppRunner) loadConfig() (*config.Config, error) {
	path := a.v.GetString("config")
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: '%s'", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat config file '%s': %w", path, err)
	}

	cfg, err := a.configLoader.Load(path)
	if err != nil {
		return nil, err
	}

	if a.v.GetString("loglevel") == "" && cfg.Logging.Level != "" {
		logging.SetupLogging(cfg.Logging.Level)
	}
	if cfg.Logging.JSON && !a.v.GetBool("log-json") {
		logging.SetOutput(a.stderr, true)
	}
	logging.Logf(logging.Debug, "Loaded configuration '%s'", path)
	return cfg, nil
}

// selectProvider resolves --provider. Without it, a config with a single
// provider uses that provider.
func (a *AppRunner) selectProvider(cfg *config.Config) (string, config.ProviderConfig, pdfapi.Provider, error) {
	name := a.v.GetString("provider")
	if name == "" {
		if len(cfg.Providers) != 1 {
			return "", config.ProviderConfig{}, nil, fmt.Errorf("%w: --provider is required when the config defines %d providers (%s)",
				ErrMissingArgs, len(cfg.Providers), strings.Join(providerNames(cfg), ", "))
		}
		for only := range cfg.Providers {
			name = only
		}
	}
	providerCfg, ok := cfg.Providers[name]
	if !ok {
		return "", config.ProviderConfig{}, nil, fmt.Errorf("provider '%s' not found in configuration (known: %s)", name, strings.Join(providerNames(cfg), ", "))
	}
	provider, err := pdfapi.LookupProvider(providerCfg.Kind)
	if err != nil {
		return "", config.ProviderConfig{}, nil, err
	}
	return name, providerCfg, provider, nil
}

func providerNames(cfg *config.Config) []string {
	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// loadItems reads the items document from a file, or stdin when path is "-".
func loadItems(cmd *cobra.Command, path string) ([]params.WorkItem, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read items '%s': %w", path, err)
	}
	items, err := params.LoadItems(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load items '%s': %w", path, err)
	}
	logging.Logf(logging.Debug, "Loaded %d items from '%s'", len(items), path)
	return items, nil
}
