package admin

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/cloo-solutions/ragpipe/internal/config"
	"github.com/cloo-solutions/ragpipe/internal/database"
	"github.com/spf13/cobra"
)

// StatusCmd returns the status command
func StatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index derivation progress",
		Long:  "Show per-config progress of the derivation pipeline for one project",
		RunE:  runStatus,
	}

	cmd.Flags().String("project", "", "Project to inspect (defaults to the configured default project)")

	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	deps, err := buildPipeline(ctx, cfg, pool)
	if err != nil {
		return err
	}

	projectID, _ := cmd.Flags().GetString("project")
	if projectID == "" {
		projectID = cfg.DefaultProjectID
	}

	progress, err := deps.indexSvc.Status(ctx, projectID)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(progress))
	for id := range progress {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CONFIG\tDOCS\tEXTRACTED\tCHUNKED\tEMBEDDED\tCOMPLETED\tERRORS")
	for _, id := range ids {
		p := progress[id]
		errors := p.ExtractedErrorCount + p.ChunkedErrorCount + p.EmbeddedErrorCount
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
			id, p.TotalDocumentCount, p.ExtractedCount, p.ChunkedCount, p.EmbeddedCount, p.CompletedCount, errors)
	}
	return w.Flush()
}
