package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	dedupeDryRun bool
	dedupeBackup bool
	dedupeJSON   bool
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Remove recipes that duplicate an older recipe's ingredients",
	Long: "Scan recipes oldest first and delete every recipe whose ingredient set " +
		"(case and surrounding whitespace ignored) matches an older one. Cleanup " +
		"failures are reported but do not fail the command.",
	Args: cobra.NoArgs,
	RunE: runDedupe,
}

func init() {
	dedupeCmd.Flags().BoolVar(&dedupeDryRun, "dry-run", false,
		"Report duplicates without deleting them")
	dedupeCmd.Flags().BoolVar(&dedupeBackup, "backup", false,
		"Snapshot the database before deleting (default from cleanup.backup)")
	dedupeCmd.Flags().BoolVar(&dedupeJSON, "json", false,
		"Output in JSON format")
}

func runDedupe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	backup := cfg.Cleanup.Backup
	if cmd.Flags().Changed("backup") {
		backup = dedupeBackup
	}

	remover, err := newRemover(cfg, s, dedupeDryRun, backup)
	if err != nil {
		return err
	}

	result := remover.Run(cmd.Context())
	out := cmd.OutOrStdout()

	if !result.OK() {
		fmt.Fprintf(cmd.ErrOrStderr(), "Duplicate cleanup failed: %v\n", result.Err)
		return nil
	}

	if dedupeJSON {
		return printJSON(out, result.Report())
	}

	for _, d := range result.Duplicates {
		fmt.Fprintf(out, "Duplicate: %q (%s) matches %s\n", d.Name, d.ID, d.CanonicalID)
	}
	if result.BackupPath != "" {
		fmt.Fprintf(out, "Backup written to %s\n", result.BackupPath)
	}
	if result.DryRun {
		fmt.Fprintf(out, "Found %d duplicate recipes (dry run, nothing removed).\n", len(result.Duplicates))
	} else {
		fmt.Fprintf(out, "Removed %d duplicate recipes.\n", result.Removed)
	}
	return nil
}
