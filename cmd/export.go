package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/partsbin/internal/cli"
	"github.com/theirongolddev/partsbin/internal/export"
	"github.com/theirongolddev/partsbin/internal/store"
)

var (
	flagExportDataset string
	flagExportFormat  string
	flagExportOut     string
	flagExportS3      bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export inventory, projects and purchases as CSV or JSON",
	Long:  "Write one file per dataset to a local directory, or upload them to the S3 bucket configured under [export.s3].",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&flagExportDataset, "dataset", "d", "", "Dataset to export: inventory, projects, purchases (default all)")
	exportCmd.Flags().StringVarP(&flagExportFormat, "format", "f", "csv", "Output format: csv, json")
	exportCmd.Flags().StringVarP(&flagExportOut, "out", "o", ".", "Output directory")
	exportCmd.Flags().BoolVar(&flagExportS3, "s3", false, "Upload to the configured S3 bucket instead of --out")
	rootCmd.AddCommand(exportCmd)
}

func runExport(_ *cobra.Command, _ []string) error {
	format, err := export.ParseFormat(flagExportFormat)
	if err != nil {
		return err
	}
	datasets := export.Datasets
	if flagExportDataset != "" {
		ds, err := export.ParseDataset(flagExportDataset)
		if err != nil {
			return err
		}
		datasets = []export.Dataset{ds}
	}

	return withStore(func(ctx context.Context, st *store.Store) error {
		sink, err := exportSink(ctx)
		if err != nil {
			return err
		}
		result, err := loadData(ctx, st)
		if err != nil {
			return err
		}

		now := time.Now()
		rows := make([][]string, 0, len(datasets))
		for _, ds := range datasets {
			body, err := export.Encode(ds, format, result)
			if err != nil {
				return fmt.Errorf("encoding %s: %w", ds, err)
			}
			where, err := sink.Put(ctx, export.FileName(ds, format, now), format.ContentType(), body)
			if err != nil {
				return err
			}
			rows = append(rows, []string{string(ds), cli.FormatCount(int64(len(body))), where})
		}

		fmt.Println()
		fmt.Println(cli.RenderTitle("EXPORT"))
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Dataset", "Bytes", "Written to"},
			Rows:    rows,
			Left:    []int{0, 2},
		}))
		return nil
	})
}

func exportSink(ctx context.Context) (export.Sink, error) {
	if !flagExportS3 {
		return export.FileSink{Dir: flagExportOut}, nil
	}
	c := appConfig.Export.S3
	if c.Bucket == "" {
		return nil, errors.New("no S3 bucket configured; set export.s3.bucket or PARTSBIN_S3_BUCKET")
	}
	return export.NewS3Sink(ctx, export.S3Config{
		Bucket:          c.Bucket,
		Prefix:          c.Prefix,
		Region:          c.Region,
		Endpoint:        c.Endpoint,
		PathStyle:       c.PathStyle,
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
	})
}
