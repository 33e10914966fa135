// Package main provides the Lead Scout CLI, a thin client over the HTTP API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/leadscout/lead-scout/internal/client"
	"github.com/leadscout/lead-scout/internal/search"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lead-scout",
		Short: "Lead Scout - find business leads from the command line",
		Long: `Lead Scout talks to a running lead-scout-server and prints results.

Run 'lead-scout search "coffee shops" "Cape Town"' to find leads.
Run 'lead-scout --help' for available commands.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("server", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().Bool("json", false, "print raw JSON responses")

	rootCmd.AddCommand(
		searchCmd(),
		businessesCmd(),
		usageCmd(),
		historyCmd(),
		statsCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func apiClient(cmd *cobra.Command) *client.Client {
	baseURL, _ := cmd.Flags().GetString("server")
	cfg := client.DefaultConfig()
	cfg.BaseURL = baseURL
	return client.New(cfg)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query> <location>",
		Short: "Search for businesses and store them as leads",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			radius, _ := cmd.Flags().GetInt("radius")
			maxResults, _ := cmd.Flags().GetInt("max-results")
			asJSON, _ := cmd.Flags().GetBool("json")

			resp, err := apiClient(cmd).Search(context.Background(), search.Request{
				Query:      args[0],
				Location:   args[1],
				RadiusKm:   radius,
				MaxResults: maxResults,
			})
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(resp)
			}

			fmt.Printf("Search #%d: %q in %s (%d results)\n\n",
				resp.SearchID, resp.Query, resp.Location, resp.TotalResults)

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SCORE\tNAME\tRATING\tPHONE\tWEBSITE")
			for _, b := range resp.Businesses {
				rating := "-"
				if b.Rating != nil {
					rating = strconv.FormatFloat(*b.Rating, 'f', 1, 64)
				}
				website := b.Website
				if website == "" {
					website = "(none)"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
					b.LeadScore, b.Name, rating, b.Phone, website)
			}
			w.Flush()

			if resp.APIUsage != nil {
				fmt.Printf("\nAPI usage: %d/%d calls this month\n",
					resp.APIUsage.CallsUsed, resp.APIUsage.CallsLimit)
			}
			return nil
		},
	}

	cmd.Flags().IntP("radius", "r", 0, "search radius in km (default 10)")
	cmd.Flags().IntP("max-results", "n", 0, "maximum results (default 10)")
	return cmd
}

func businessesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "businesses",
		Short: "List stored businesses",
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			searchID, _ := cmd.Flags().GetInt64("search-id")
			limit, _ := cmd.Flags().GetInt("limit")
			offset, _ := cmd.Flags().GetInt("offset")

			filter := client.ListFilter{
				SearchID: searchID,
				Limit:    limit,
				Offset:   offset,
			}
			if cmd.Flags().Changed("has-website") {
				v, _ := cmd.Flags().GetBool("has-website")
				filter.HasWebsite = &v
			}
			if cmd.Flags().Changed("min-rating") {
				v, _ := cmd.Flags().GetFloat64("min-rating")
				filter.MinRating = &v
			}

			resp, err := apiClient(cmd).ListBusinesses(context.Background(), filter)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(resp)
			}

			fmt.Printf("%d businesses (showing %d from offset %d)\n\n",
				resp.Total, len(resp.Businesses), resp.Offset)

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSCORE\tNAME\tRATING\tWEBSITE")
			for _, b := range resp.Businesses {
				rating := "-"
				if b.Rating != nil {
					rating = strconv.FormatFloat(*b.Rating, 'f', 1, 64)
				}
				website := b.Website
				if website == "" {
					website = "(none)"
				}
				fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n",
					b.ID, b.LeadScore, b.Name, rating, website)
			}
			return w.Flush()
		},
	}

	cmd.Flags().Int64("search-id", 0, "filter by search ID")
	cmd.Flags().Bool("has-website", false, "filter by website presence")
	cmd.Flags().Float64("min-rating", 0, "minimum rating")
	cmd.Flags().Int("limit", 0, "page size (default 50)")
	cmd.Flags().Int("offset", 0, "page offset")
	return cmd
}

func usageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show this month's API usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			resp, err := apiClient(cmd).Usage(context.Background())
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(resp)
			}

			fmt.Printf("Month:     %s\n", resp.Month)
			fmt.Printf("Used:      %d of %d calls (%.1f%%)\n",
				resp.CallsUsed, resp.CallsLimit, resp.PercentageUsed)
			fmt.Printf("Remaining: %d\n", resp.CallsRemaining)
			return nil
		},
	}
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent searches",
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			limit, _ := cmd.Flags().GetInt("limit")

			searches, err := apiClient(cmd).History(context.Background(), limit)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(searches)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tQUERY\tLOCATION\tRESULTS\tWHEN")
			for _, s := range searches {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n",
					s.ID, s.Query, s.Location, s.ResultsCount,
					s.CreatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().Int("limit", 0, "number of searches to show (default 20)")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show business statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			resp, err := apiClient(cmd).Stats(context.Background())
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(resp)
			}

			fmt.Printf("Total businesses: %d\n", resp.TotalBusinesses)
			fmt.Printf("With website:     %d (%.1f%%)\n", resp.WithWebsite, resp.WebsitePercentage)
			fmt.Printf("Without website:  %d\n", resp.WithoutWebsite)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("lead-scout %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	}
}
