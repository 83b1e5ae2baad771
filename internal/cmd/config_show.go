package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage chemist configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show resolved configuration with credentials redacted",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, span := tracer.Start(cmd.Context(), "config.show")
		defer span.End()

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		fmt.Printf("supabase_url:          %s\n", redact(cfg.SupabaseURL))
		fmt.Printf("supabase_key:          %s\n", redact(cfg.SupabaseKey))
		fmt.Printf("storage_bucket:        %s\n", cfg.StorageBucket)
		fmt.Printf("openai_api_key:        %s\n", redact(cfg.OpenAIAPIKey))
		fmt.Printf("openai_base_url:       %s\n", cfg.OpenAIBaseURL)
		fmt.Printf("router_model:          %s\n", cfg.RouterModel)
		fmt.Printf("answer_model:          %s\n", cfg.AnswerModel)
		fmt.Printf("metadata_ttl:          %s\n", cfg.MetadataTTL)
		fmt.Printf("fallback_guide_path:   %s\n", cfg.FallbackGuidePath)
		fmt.Printf("premium_dataset_path:  %s\n", cfg.PremiumDatasetPath)
		fmt.Printf("max_message_chars:     %d\n", cfg.MaxMessageChars)
		fmt.Printf("max_history_items:     %d\n", cfg.MaxHistoryItems)
		fmt.Printf("history_char_budget:   %d\n", cfg.HistoryCharBudget)
		fmt.Printf("quota_max_requests:    %d\n", cfg.QuotaMaxRequests)
		fmt.Printf("quota_window:          %s\n", cfg.QuotaWindow)
		fmt.Printf("max_doc_chars:         %d\n", cfg.MaxDocChars)
		fmt.Printf("global_rps:            %d\n", cfg.GlobalRPS)
		return nil
	},
}

// redact hides a credential while showing whether it is set at all.
func redact(v string) string {
	if v == "" {
		return "(not set)"
	}
	if len(v) <= 8 {
		return "****"
	}
	return v[:4] + "..." + "****"
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
