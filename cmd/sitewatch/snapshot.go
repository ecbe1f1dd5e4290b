package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/sitewatch/internal/jobfile"
	"github.com/amishk599/sitewatch/internal/report"
	"github.com/amishk599/sitewatch/internal/store"
)

var (
	importCapturedAt string
	exportFormat     string
	exportOutput     string
	pruneKeep        int
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage stored job board snapshots",
}

var snapshotImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Store a scraped job list as a new snapshot",
	Long:  "Reads a JSON array of jobs (\"-\" for stdin) and stores it as a snapshot, then prunes old snapshots if storage.keep_snapshots is set.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotImport,
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshots",
	RunE:  runSnapshotList,
}

var snapshotExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the latest snapshot as JSON or CSV",
	RunE:  runSnapshotExport,
}

var snapshotPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the newest snapshots",
	RunE:  runSnapshotPrune,
}

func init() {
	snapshotImportCmd.Flags().StringVar(&importCapturedAt, "captured-at", "", "capture time (RFC 3339, default now)")
	snapshotExportCmd.Flags().StringVar(&exportFormat, "format", "json", "output format: json or csv")
	snapshotExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")
	snapshotPruneCmd.Flags().IntVar(&pruneKeep, "keep", 0, "snapshots to keep (default storage.keep_snapshots)")

	snapshotCmd.AddCommand(snapshotImportCmd, snapshotListCmd, snapshotExportCmd, snapshotPruneCmd)
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshotImport(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg, st := mustSetup(logger)
	defer st.Close()

	capturedAt := time.Now().UTC()
	if importCapturedAt != "" {
		t, err := time.Parse(time.RFC3339, importCapturedAt)
		if err != nil {
			logger.Error("invalid --captured-at", "value", importCapturedAt, "error", err)
			os.Exit(1)
		}
		capturedAt = t
	}

	var in io.Reader = os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			logger.Error("failed to open job file", "error", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	snap, err := jobfile.Decode(in, capturedAt)
	if err != nil {
		logger.Error("failed to read job file", "file", args[0], "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := st.SaveSnapshot(ctx, snap); err != nil {
		if errors.Is(err, store.ErrSnapshotExists) {
			logger.Error("a snapshot with this capture time already exists", "captured_at", capturedAt.Format(time.RFC3339))
		} else {
			logger.Error("failed to save snapshot", "error", err)
		}
		os.Exit(1)
	}
	logger.Info("snapshot imported", "captured_at", capturedAt.Format(time.RFC3339), "jobs", snap.Len())

	if keep := cfg.Storage.KeepSnapshots; keep > 0 {
		removed, err := st.PruneSnapshots(ctx, keep)
		if err != nil {
			logger.Warn("pruning snapshots failed", "error", err)
		} else if removed > 0 {
			logger.Info("pruned old snapshots", "removed", removed, "kept", keep)
		}
	}
	return nil
}

func runSnapshotList(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	_, st := mustSetup(logger)
	defer st.Close()

	infos, err := st.ListSnapshots(context.Background())
	if err != nil {
		logger.Error("failed to list snapshots", "error", err)
		os.Exit(1)
	}
	if len(infos) == 0 {
		fmt.Println("No snapshots stored.")
		return nil
	}
	report.WriteSnapshots(os.Stdout, infos)
	return nil
}

func runSnapshotExport(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	_, st := mustSetup(logger)
	defer st.Close()

	write := jobfile.WriteJSON
	switch exportFormat {
	case "json":
	case "csv":
		write = jobfile.WriteCSV
	default:
		logger.Error("unsupported export format", "format", exportFormat)
		os.Exit(1)
	}

	snap, ok, err := st.LatestSnapshot(context.Background())
	if err != nil {
		logger.Error("failed to load latest snapshot", "error", err)
		os.Exit(1)
	}
	if !ok {
		fmt.Fprintln(os.Stderr, "No snapshots stored.")
		return nil
	}

	var out io.Writer = os.Stdout
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			logger.Error("failed to create output file", "error", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	if err := write(out, snap); err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
	return nil
}

func runSnapshotPrune(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg, st := mustSetup(logger)
	defer st.Close()

	keep := cfg.Storage.KeepSnapshots
	if cmd.Flags().Changed("keep") {
		keep = pruneKeep
	}
	if keep < 2 {
		logger.Error("refusing to prune: keep must be at least 2", "keep", keep)
		os.Exit(1)
	}

	removed, err := st.PruneSnapshots(context.Background(), keep)
	if err != nil {
		logger.Error("failed to prune snapshots", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Removed %d snapshot(s), kept the newest %d.\n", removed, keep)
	return nil
}
