// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperstore/internal/cache"
	"github.com/pdiddy/paperstore/internal/record"
	"github.com/pdiddy/paperstore/pkg/types"
)

var showCmd = &cobra.Command{
	Use:   "show <key | identifier>",
	Short: "Show the citation metadata stored for a record or identifier",
	Long: `Show decodes the paper stored under a record key, or under an identifier
such as arxiv:1706.03762, and resolves its references and citations
against the records already in the store.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().Bool("json", false, "print the decoded paper as JSON")
	showCmd.Flags().Bool("edges", false, "list every reference and citation")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	s, err := openStore(loadConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	papers := cache.NewPapers()
	p, err := papers.Lookup(ctx, s, args[0])
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("no paper found for %q", args[0])
	}
	p, err = papers.ResolveEdges(ctx, s, p)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		data, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	writePaper(os.Stdout, args[0], p)
	if edges, _ := cmd.Flags().GetBool("edges"); edges {
		writeEdges(os.Stdout, "References", p.References)
		writeEdges(os.Stdout, "Citations", p.Citations)
	}
	return nil
}

// writePaper prints a human-readable summary of p.
func writePaper(w io.Writer, key string, p *types.Paper) {
	fmt.Fprintf(w, "Key:        %s\n", key)
	if p.Title != "" {
		fmt.Fprintf(w, "Title:      %s\n", p.Title)
	}
	if p.Year != 0 {
		fmt.Fprintf(w, "Year:       %d\n", p.Year)
	}
	for _, id := range []types.Identifier{p.ArxivID, p.DOI, p.MAID, p.S2ID} {
		if !id.IsZero() {
			fmt.Fprintf(w, "Identifier: %s\n", id)
		}
	}
	if len(p.Authors) > 0 {
		names := make([]string, 0, len(p.Authors))
		for _, a := range p.Authors {
			if a.Name != "" {
				names = append(names, a.Name)
			}
		}
		fmt.Fprintf(w, "Authors:    %s\n", strings.Join(names, "; "))
	}
	fmt.Fprintf(w, "References: %d\n", len(p.References))
	fmt.Fprintf(w, "Citations:  %d\n", len(p.Citations))
}

// writeEdges lists edges, with the caption of every target the store knows.
func writeEdges(w io.Writer, heading string, edges []types.PaperReference) {
	if len(edges) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", heading)
	for _, e := range edges {
		id, _ := e.TargetID()
		if e.Paper != nil && e.Paper.Title != "" {
			fmt.Fprintf(w, "  %-40s %s\n", id, record.Caption(e.Paper))
			continue
		}
		fmt.Fprintf(w, "  %s\n", id)
	}
}
