package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/hermes-backend/internal/app"
	"github.com/yungbote/hermes-backend/internal/data/repos"
	catalogmod "github.com/yungbote/hermes-backend/internal/modules/catalog"
	"github.com/yungbote/hermes-backend/internal/services"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the discipline catalog",
}

var catalogSeedCmd = &cobra.Command{
	Use:   "seed <file.yaml>",
	Short: "Upsert disciplines from a YAML tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		rows, err := catalogmod.ParseSeed(f)
		if err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}

		base, err := app.NewBase(cmd.Context())
		if err != nil {
			return err
		}
		defer base.Close()
		svc := services.NewCatalogService(base.Log, repos.NewDisciplineRepo(base.DB, base.Log))
		n, err := svc.Seed(cmd.Context(), rows)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d disciplines from %d rows\n", n, len(rows))
		return nil
	},
}

var searchLimit int

var catalogSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search disciplines",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		base, err := app.NewBase(cmd.Context())
		if err != nil {
			return err
		}
		defer base.Close()
		svc := services.NewCatalogService(base.Log, repos.NewDisciplineRepo(base.DB, base.Log))
		hits, err := svc.Search(cmd.Context(), strings.Join(args, " "), searchLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, h := range hits {
			fmt.Fprintf(out, "%s\t%s\n", h.Discipline.ID, strings.Join(h.Path, " > "))
		}
		if len(hits) == 0 {
			fmt.Fprintln(out, "no matches")
		}
		return nil
	},
}

func init() {
	catalogSearchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "maximum results")
	catalogCmd.AddCommand(catalogSeedCmd, catalogSearchCmd)
}
