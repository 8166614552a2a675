package main

import (
	"errors"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/audiodex/internal/config"
	"github.com/kailas-cloud/audiodex/internal/importer"
	logpkg "github.com/kailas-cloud/audiodex/internal/logger"
)

type importFlags struct {
	collection string
	files      []string
	bucket     string
	prefix     string
}

func newImportCmd(flags *globalFlags) *cobra.Command {
	f := &importFlags{}
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Bulk-load JSON-lines descriptor documents into a collection",
		Long: `Import reads one descriptor document per line from local files (directories
contribute every *.jsonl below them) or from every object under a prefix of an
S3-compatible bucket, validates each document and upserts it in batches.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runImport(cmd, flags, f)
		},
	}
	cmd.Flags().StringVarP(&f.collection, "collection", "c", "", "target collection (required)")
	cmd.Flags().StringSliceVarP(&f.files, "file", "f", nil, "local file or directory (repeatable)")
	cmd.Flags().StringVar(&f.bucket, "bucket", "", "object store bucket (defaults to object_store.bucket)")
	cmd.Flags().StringVar(&f.prefix, "prefix", "", "object key prefix")
	_ = cmd.MarkFlagRequired("collection")
	return cmd
}

func runImport(cmd *cobra.Command, flags *globalFlags, f *importFlags) error {
	cfg, err := flags.loadConfig()
	if err != nil {
		return err
	}

	logger, err := logpkg.NewCLILogger(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	ctx := logpkg.ContextWithLogger(cmd.Context(), logger)

	src, err := importSource(f, cfg.ObjectStore)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	if _, err := a.registry.Get(f.collection); err != nil {
		return err
	}
	batch, err := a.batch()
	if err != nil {
		return err
	}

	report, err := importer.New(batch, cfg.Import.Concurrency, cfg.Import.BatchSize).Run(ctx, f.collection, src)
	if err != nil {
		return fmt.Errorf("import %s: %w", f.collection, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d files, %d imported, %d rejected, %d malformed lines\n",
		report.RunID, report.Files, report.Summary.OK, report.Summary.Failed, report.Malformed)
	if report.Summary.Failed > 0 || report.Malformed > 0 {
		logger.Warn("Import finished with rejected input", zap.String("run_id", report.RunID))
	}
	return nil
}

// importSource picks local files or the object store. Exactly one must be given.
func importSource(f *importFlags, osCfg config.ObjectStoreConfig) (importer.Source, error) {
	bucket := f.bucket
	if bucket == "" && f.prefix != "" {
		bucket = osCfg.Bucket
	}

	switch {
	case len(f.files) > 0 && bucket != "":
		return nil, errors.New("--file and --bucket are mutually exclusive")
	case len(f.files) > 0:
		return importer.NewFileSource(f.files...), nil
	case bucket != "":
		if osCfg.Endpoint == "" {
			return nil, errors.New("object_store.endpoint is required for bucket imports")
		}
		client, err := minio.New(osCfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(osCfg.AccessKey, osCfg.SecretKey, ""),
			Secure: osCfg.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("object store client: %w", err)
		}
		return importer.NewObjectSource(client, bucket, f.prefix), nil
	default:
		return nil, errors.New("one of --file or --bucket (or --prefix with object_store.bucket) is required")
	}
}
