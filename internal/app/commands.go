package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"pdfbatch/internal/batch"
	"pdfbatch/internal/config"
	"pdfbatch/internal/credentials"
	"pdfbatch/internal/logging"

	"github.com/spf13/cobra"
)

func (a *AppRunner) newRunCommand() *cobra.Command {
	var (
		itemsPath      string
		continueOnFail bool
		dryRun         bool
		outputFile     string
		outputJq       string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Resolve, build and send every item, then write one result per item",
		Example: `  pdfbatch run -c config.yaml -i items.yaml
  pdfbatch run -c config.yaml -i items.yaml --provider pdfmunk --continue-on-fail
  pdfbatch run -c config.yaml -i items.yaml --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			items, err := loadItems(cmd, itemsPath)
			if err != nil {
				return err
			}
			providerName, providerCfg, provider, err := a.selectProvider(cfg)
			if err != nil {
				return err
			}

			if dryRun {
				logging.Logf(logging.Info, "Dry run: building %d items for provider '%s' without sending them", len(items), providerName)
				_, err := printPreviews(cmd.OutOrStdout(), batch.PreviewItems(provider, items))
				return err
			}

			policy := cfg.Batch.FailurePolicy
			if p := a.v.GetString("failure-policy"); p != "" {
				policy = p
			}
			if continueOnFail {
				policy = config.FailurePolicyContinue
			}
			policy = strings.ToLower(policy)
			if policy != config.FailurePolicyStop && policy != config.FailurePolicyContinue {
				return fmt.Errorf("invalid failure policy '%s', must be '%s' or '%s'", policy, config.FailurePolicyStop, config.FailurePolicyContinue)
			}
			concurrency := cfg.Batch.Concurrency
			if n := a.v.GetInt("concurrency"); n > 0 {
				concurrency = n
			}

			store, err := credentials.NewStoreFromConfig(cfg.Credentials)
			if err != nil {
				return err
			}
			execute, err := a.executorFactory.New(&providerCfg, cfg.Retry, store)
			if err != nil {
				return err
			}

			runner := batch.NewRunnerWithOpts(execute, batch.RunnerOpts{
				Provider:      provider,
				Credential:    providerCfg.Credential,
				FailurePolicy: policy,
				Concurrency:   concurrency,
			})
			report, runErr := runner.Run(cmd.Context(), items)

			out := config.OutputConfig{}
			if cfg.Output != nil {
				out = *cfg.Output
			}
			if outputFile != "" {
				out.File = outputFile
			}
			if outputJq != "" {
				out.Jq = outputJq
			}
			if err := a.writeOutput(cmd.OutOrStdout(), report, providerName, out); err != nil {
				if runErr != nil {
					logging.Logf(logging.Error, "Batch aborted: %v", runErr)
				}
				return err
			}

			if runErr != nil {
				return fmt.Errorf("batch %s aborted: %w", report.RunID, runErr)
			}
			if report.Failed() > 0 {
				logging.Log(logging.Warning, "Batch finished with failed items",
					"run_id", report.RunID, "provider", providerName, "failed", report.Failed())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&itemsPath, "items", "i", "", "YAML or JSON file with the work items ('-' for stdin)")
	cmd.Flags().String("failure-policy", "", "Failure policy: stop or continue; overrides the config file")
	cmd.Flags().BoolVar(&continueOnFail, "continue-on-fail", false, "Record failed items and keep going (same as --failure-policy continue)")
	cmd.Flags().Int("concurrency", 0, "Items in flight at once; overrides the config file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the requests that would be sent and exit")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write results to this file (Go template, e.g. results-{{.RunID}}.json)")
	cmd.Flags().StringVar(&outputJq, "jq", "", "jq filter applied to the results before writing")
	_ = cmd.MarkFlagRequired("items")
	a.bindFlags(cmd, false, "failure-policy", "concurrency")
	return cmd
}

func (a *AppRunner) newValidateCommand() *cobra.Command {
	var itemsPath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and, with --items, build every item without sending it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration '%s' is valid: %d provider(s) [%s], %d credential(s)\n",
				a.v.GetString("config"), len(cfg.Providers), strings.Join(providerNames(cfg), ", "), len(cfg.Credentials))
			if itemsPath == "" {
				return nil
			}

			items, err := loadItems(cmd, itemsPath)
			if err != nil {
				return err
			}
			_, _, provider, err := a.selectProvider(cfg)
			if err != nil {
				return err
			}
			invalid, err := printPreviews(cmd.OutOrStdout(), batch.PreviewItems(provider, items))
			if err != nil {
				return err
			}
			if invalid > 0 {
				return fmt.Errorf("%w: %d of %d", ErrItemsInvalid, invalid, len(items))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&itemsPath, "items", "i", "", "YAML or JSON file with the work items to check")
	return cmd
}

func (a *AppRunner) newVerifyCredentialCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-credential",
		Short: "Send the provider's test request to check that its credential is accepted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			providerName, providerCfg, provider, err := a.selectProvider(cfg)
			if err != nil {
				return err
			}
			store, err := credentials.NewStoreFromConfig(cfg.Credentials)
			if err != nil {
				return err
			}
			execute, err := a.executorFactory.New(&providerCfg, cfg.Retry, store)
			if err != nil {
				return err
			}
			if err := credentials.Verify(cmd.Context(), execute, provider, providerCfg.Credential); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Credential '%s' accepted by provider '%s'\n", providerCfg.Credential, providerName)
			return nil
		},
	}
}

// printPreviews writes the previews as a JSON array and returns how many failed to build.
func printPreviews(w io.Writer, previews []batch.Preview) (int, error) {
	invalid := 0
	for _, p := range previews {
		if p.Err != nil {
			invalid++
			logging.Logf(logging.Warning, "Item %d cannot be built: %v", p.Index, p.Err)
		}
	}
	data, err := json.MarshalIndent(previews, "", "  ")
	if err != nil {
		return invalid, fmt.Errorf("failed to encode previews: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return invalid, nil
}
