// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/shelfgrab/internal/fetch"
	"github.com/pdiddy/shelfgrab/internal/httputil"
	"github.com/pdiddy/shelfgrab/internal/match"
	"github.com/pdiddy/shelfgrab/internal/provider"
	"github.com/pdiddy/shelfgrab/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search <libgen|flibusta> <query...>",
	Short: "Search one provider and show its candidates",
	Long: `Search sends one query to a provider and prints every candidate it
returns, marking the one the title matcher and format priority would pick.
Nothing is downloaded or recorded.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Bool("isbn", false, "search the identifier field instead of free text")
	searchCmd.Flags().Bool("json", false, "output candidates as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	kind, query := args[0], strings.Join(args[1:], " ")

	pcfg := cfg.Primary
	if kind == provider.KindFlibusta {
		pcfg = cfg.Secondary
	}
	d := fetch.New(httputil.NewClient(pcfg.HTTPConfig), cfg.OutDir)
	p, err := provider.New(kind, pcfg, d)
	if err != nil {
		return err
	}

	field := provider.FieldFreeText
	if isbn, _ := cmd.Flags().GetBool("isbn"); isbn {
		field = provider.FieldIdentifier
	}
	cands, err := p.Search(cmd.Context(), query, field)
	if err != nil {
		return err
	}

	var best types.Candidate
	var ok bool
	if field == provider.FieldIdentifier {
		best, ok = match.PickFormat(cands)
	} else {
		best, ok = match.BestMatch(query, cands)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cands)
	}

	if len(cands) == 0 {
		fmt.Println("No candidates.")
		return nil
	}
	for i, c := range cands {
		marker := " "
		if ok && c.Link == best.Link && c.Format == best.Format {
			marker = "*"
		}
		fmt.Printf("%s %2d. [%s] %s by %s\n", marker, i+1, c.Format, c.Title, strings.Join(c.Authors, ", "))
	}
	if ok {
		fmt.Printf("\nBest match: %s (%s)\n", best.Title, best.Format)
	} else {
		fmt.Println("\nNo candidate passes the matcher.")
	}
	return nil
}
