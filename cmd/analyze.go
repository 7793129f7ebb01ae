package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/seo-leads/internal/analysis"
	"github.com/sells-group/seo-leads/internal/signals"
	anthropicpkg "github.com/sells-group/seo-leads/pkg/anthropic"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run an LLM SEO or security audit, or draft marketing content",
	Example: `  seo-leads analyze --type security --url https://acme.example
  seo-leads analyze --type content --content-type article --param topic="Drain care" --param tone=Friendly`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		kind, _ := cmd.Flags().GetString("type")
		url, _ := cmd.Flags().GetString("url")
		htmlPath, _ := cmd.Flags().GetString("html")
		contentType, _ := cmd.Flags().GetString("content-type")
		params, _ := cmd.Flags().GetStringToString("param")

		req := analysis.Request{
			Kind:        analysis.Kind(kind),
			URL:         url,
			ContentType: analysis.ContentType(contentType),
			Params:      params,
		}
		if htmlPath != "" {
			b, err := os.ReadFile(htmlPath)
			if err != nil {
				return eris.Wrap(err, "read html")
			}
			req.HTMLSource = string(b)
		}
		if err := req.Validate(); err != nil {
			return err
		}
		if err := cfg.Validate("analyze"); err != nil {
			return err
		}

		pages := signals.NewAnalyzer(signals.Options{
			Timeout:      cfg.Fetch.Timeout(),
			UserAgent:    cfg.Fetch.UserAgent,
			MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
		})
		analyzer := analysis.NewAnalyzer(anthropicpkg.NewClient(cfg.Anthropic.Key), analysis.Config{
			Model:     cfg.Anthropic.Model,
			MaxTokens: cfg.Anthropic.MaxTokens,
		}, analysis.WithPageFetcher(pages))
		res, err := analyzer.Analyze(ctx, req)
		if err != nil {
			return eris.Wrap(err, "analyze")
		}
		return printJSON(os.Stdout, res)
	},
}

func init() {
	f := analyzeCmd.Flags()
	f.String("type", string(analysis.KindSEO), "request type (seo, security, content)")
	f.String("url", "", "page URL")
	f.String("html", "", "path to saved HTML source")
	f.String("content-type", "", "draft to generate with --type content (keywords, press_release, article)")
	f.StringToString("param", nil, "content parameter as key=value (repeatable)")
	rootCmd.AddCommand(analyzeCmd)
}
