// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperstore/internal/cache"
	"github.com/pdiddy/paperstore/pkg/types"
)

var authorsCmd = &cobra.Command{
	Use:   "authors",
	Short: "List the persisted authors table",
	RunE:  runAuthors,
}

func init() {
	authorsCmd.Flags().Bool("json", false, "print the table as JSON")
	rootCmd.AddCommand(authorsCmd)
}

func runAuthors(cmd *cobra.Command, _ []string) error {
	s, err := openStore(loadConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	table := cache.NewAuthors()
	if err := table.Load(cmd.Context(), s); err != nil {
		return err
	}
	authors := table.List()

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		data, err := json.MarshalIndent(authors, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	writeAuthors(os.Stdout, authors)
	return nil
}

func writeAuthors(w io.Writer, authors []types.Author) {
	if len(authors) == 0 {
		fmt.Fprintln(w, "No authors recorded.")
		return
	}
	fmt.Fprintf(w, "%-20s %-30s %s\n", "ID", "NAME", "INSTITUTION")
	for _, a := range authors {
		fmt.Fprintf(w, "%-20s %-30s %s\n", a.ID, a.Name, a.Institution)
	}
	fmt.Fprintf(w, "\n%d author(s)\n", len(authors))
}
