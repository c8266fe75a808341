package main

import (
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/helixir/lab-stats-service/internal/app"
	"github.com/helixir/lab-stats-service/internal/config"
	"github.com/helixir/lab-stats-service/internal/database"
	"github.com/helixir/lab-stats-service/internal/repository"
)

const detailFieldsShown = 3

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the profile catalog or load it into postgres",
}

var catalogResearchersCmd = &cobra.Command{
	Use:   "researchers",
	Short: "List researchers from the configured catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := app.OpenCatalog(cmd.Context(), state.cfg, state.logger)
		if err != nil {
			return err
		}
		defer catalog.Close()

		category, _ := cmd.Flags().GetString("category")
		researchers, err := catalog.Repository.ListResearchers(cmd.Context(), category)
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return writeJSON(cmd.OutOrStdout(), researchers)
		}

		rows := make([][]string, 0, len(researchers))
		for _, r := range researchers {
			rows = append(rows, []string{r.ID, r.Name, r.Category, detailSummary(r.Details, detailFieldsShown)})
		}
		if err := renderTable(cmd.OutOrStdout(), []string{"ID", "Name", "Category", "Details"}, rows, tw.AlignLeft); err != nil {
			return err
		}
		mutedColor.Fprintf(cmd.OutOrStdout(), "%d researchers\n", len(researchers))
		return nil
	},
}

var catalogProjectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects from the configured catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := app.OpenCatalog(cmd.Context(), state.cfg, state.logger)
		if err != nil {
			return err
		}
		defer catalog.Close()

		projects, err := catalog.Repository.ListProjects(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return writeJSON(cmd.OutOrStdout(), projects)
		}

		rows := make([][]string, 0, len(projects))
		for _, p := range projects {
			rows = append(rows, []string{p.ID, p.Name, p.Type, detailSummary(p.Details, detailFieldsShown)})
		}
		if err := renderTable(cmd.OutOrStdout(), []string{"ID", "Name", "Type", "Details"}, rows, tw.AlignLeft); err != nil {
			return err
		}
		mutedColor.Fprintf(cmd.OutOrStdout(), "%d projects\n", len(projects))
		return nil
	},
}

var catalogImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Load the JSON dataset exports into the postgres catalog",
	Long: `import reads the researchers and projects dataset exports (the file
backend's format) and upserts every profile into postgres in one transaction.
Existing profiles with the same id are replaced; nothing is deleted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		researchersPath, _ := cmd.Flags().GetString("researchers")
		if researchersPath == "" {
			researchersPath = state.cfg.Catalog.ResearchersPath
		}
		projectsPath, _ := cmd.Flags().GetString("projects")
		if projectsPath == "" {
			projectsPath = state.cfg.Catalog.ProjectsPath
		}

		source, err := repository.LoadFileCatalog(researchersPath, projectsPath, state.logger)
		if err != nil {
			return err
		}
		researchers, err := source.ListResearchers(ctx, "")
		if err != nil {
			return err
		}
		projects, err := source.ListProjects(ctx)
		if err != nil {
			return err
		}

		migrate, _ := cmd.Flags().GetBool("migrate")
		db, err := openDatabase(cmd, state.cfg, migrate)
		if err != nil {
			return err
		}
		defer db.Close()

		var nResearchers, nProjects int
		err = db.WithTransaction(ctx, func(tx pgx.Tx) error {
			repo := repository.NewPgCatalogRepository(tx)
			var err error
			if nResearchers, err = repo.UpsertResearchers(ctx, researchers); err != nil {
				return err
			}
			nProjects, err = repo.UpsertProjects(ctx, projects)
			return err
		})
		if err != nil {
			return fmt.Errorf("import catalog: %w", err)
		}

		return renderKeyValues(cmd.OutOrStdout(), []string{"Imported", "Count"}, [][]string{
			{"Researchers", strconv.Itoa(nResearchers)},
			{"Projects", strconv.Itoa(nProjects)},
		})
	},
}

// openDatabase connects to the catalog database regardless of the
// configured backend, applying migrations first when asked.
func openDatabase(cmd *cobra.Command, cfg *config.Config, migrate bool) (*database.DB, error) {
	db, err := database.New(cmd.Context(), &cfg.Database, state.logger)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if migrate {
		if err := database.MigrateUp(db, cfg.Database.MigrationPath, state.logger); err != nil {
			db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return db, nil
}

func init() {
	catalogResearchersCmd.Flags().String("category", "", "only researchers of exactly this category")

	catalogImportCmd.Flags().String("researchers", "", "researchers export (default: catalog.researchers_path)")
	catalogImportCmd.Flags().String("projects", "", "projects export (default: catalog.projects_path)")
	catalogImportCmd.Flags().Bool("migrate", false, "apply pending migrations before importing")

	catalogCmd.AddCommand(catalogResearchersCmd, catalogProjectsCmd, catalogImportCmd)
	rootCmd.AddCommand(catalogCmd)
}
