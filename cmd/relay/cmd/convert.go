package cmd

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"alideal-affiliate-relay/internal/affiliate"
	"alideal-affiliate-relay/internal/aliexpress"
	"alideal-affiliate-relay/internal/linkx"
)

func newConvertCmd() *cobra.Command {
	var rawURL string

	convertCmd := &cobra.Command{
		Use:   "convert",
		Short: "Resolve one URL and print its affiliate link as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(rawURL) == "" {
				_ = cmd.Help()
				return errUsage
			}

			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}

			resolver := linkx.NewResolver(cfg, logger)
			client := aliexpress.NewClient(cfg, logger)
			builder := affiliate.NewBuilder(cfg, client, logger)

			ctx := cmd.Context()
			clean := linkx.Normalize(resolver.Resolve(ctx, rawURL))
			link := builder.Build(ctx, clean)

			out := map[string]string{
				"clean_url":     clean,
				"affiliate_url": link.URL,
				"origin":        string(link.Origin),
			}
			// Clean URL first: an API-built link carries a per-call token,
			// not the stable item id.
			if id, ok := linkx.ExtractID(clean); ok {
				out["product_id"] = id.Value
				out["id_kind"] = string(id.Kind)
			} else if id, ok := linkx.ExtractID(link.URL); ok {
				out["product_id"] = id.Value
				out["id_kind"] = string(id.Kind)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	convertCmd.Flags().StringVar(&rawURL, "url", "", "Product or short link URL")

	return convertCmd
}
