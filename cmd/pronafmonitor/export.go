package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"pronafmonitor/internal/config"
	"pronafmonitor/internal/dataprocessing"
	"pronafmonitor/internal/exporter"
	"pronafmonitor/internal/middleware"
	"pronafmonitor/internal/services"
	api "pronafmonitor/pkg/contracts/api/v1"
	"pronafmonitor/pkg/contracts/domain"
)

// offline holds what the export commands need: no server, no boundaries.
type offline struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *dataprocessing.Store
	exporter *exporter.Exporter
	service  *services.DashboardService
}

func newOffline(flags *globalFlags) (*offline, error) {
	cfg, err := flags.load()
	if err != nil {
		return nil, err
	}
	logger := flags.cliLogger()

	paths, err := config.GetPaths(cfg)
	if err != nil {
		return nil, err
	}

	opts := dataprocessing.DefaultLoadOptions()
	opts.Delimiter = []rune(cfg.Data.Delimiter)[0]
	opts.Sheet = cfg.Data.Sheet

	store := dataprocessing.NewStore(dataprocessing.NewLoader(opts, logger), logger)
	exp := exporter.NewExporter(cfg.Export, logger, nil)
	svc := services.NewDashboardService(cfg, paths.DataFile, store, nil, exp, logger, nil)

	return &offline{cfg: cfg, logger: logger, store: store, exporter: exp, service: svc}, nil
}

func exportCmd(flags *globalFlags) *cobra.Command {
	var (
		format         string
		region         string
		municipalities []string
		out            string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered municipality table as CSV or Excel",
		Example: `  pronafmonitor export --format xlsx --region "Juiz de Fora"
  pronafmonitor export --region Viçosa --municipality Viçosa,Cajuri --out vicosa.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := exporter.ParseFormat(format)
			if err != nil {
				return err
			}

			req := api.SelectionRequest{Region: region, Municipalities: municipalities}
			if err := middleware.ValidateStruct(middleware.NewValidator(), req); err != nil {
				return fmt.Errorf("invalid selection: %w", err)
			}

			o, err := newOffline(flags)
			if err != nil {
				return err
			}

			art, err := o.service.Export(cmd.Context(), req.Selection(), f)
			if err != nil {
				if errors.Is(err, services.ErrNoRecords) {
					return errors.New(config.MsgNoRecords)
				}
				return err
			}

			if out == "" {
				out = art.FileName
			}
			if err := exporter.WriteFile(out, art.Data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes)\n", out, len(art.Data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(exporter.FormatCSV), "Output format (csv, xlsx)")
	cmd.Flags().StringVarP(&region, "region", "r", domain.AllRegions, "Immediate geographic region")
	cmd.Flags().StringSliceVarP(&municipalities, "municipality", "m", nil, "Municipality, repeatable or comma separated")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output path (default: the download file name)")
	return cmd
}

func snapshotCmd(flags *globalFlags) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Write the cleaned dataset to a SQLite database",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := newOffline(flags)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			ds, err := o.service.Dataset(ctx)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			if err := exporter.WriteSQLite(ctx, out, ds); err != nil {
				return err
			}

			o.logger.Info("snapshot written",
				slog.String("path", out),
				slog.Int("records", ds.Len()))
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d records)\n", out, ds.Len())
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "pronaf_snapshot.sqlite", "SQLite file to create")
	return cmd
}
