package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson"

	dbMongo "github.com/kailas-cloud/audiodex/internal/db/mongo"
	domcol "github.com/kailas-cloud/audiodex/internal/domain/collection"
	"github.com/kailas-cloud/audiodex/internal/domain/search/request"
	"github.com/kailas-cloud/audiodex/internal/pipeline"
	searchuc "github.com/kailas-cloud/audiodex/internal/usecase/search"
)

type planFlags struct {
	collection string
	namespaces string
	limit      int
	offset     int
	mongo      bool
}

func newPlanCmd(flags *globalFlags) *cobra.Command {
	f := &planFlags{}
	cmd := &cobra.Command{
		Use:   "plan descriptor=criterion...",
		Short: "Print the store pipeline a text search compiles to",
		Example: `  audiodex plan -c deezer tempo=120-5% global-key=Aminor
  audiodex plan -c audiocommons --namespaces jamendo-tracks --mongo chords=Amin-Emaj,80%`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			registry, err := domcol.NewRegistry(cfg.Collections)
			if err != nil {
				return fmt.Errorf("collections: %w", err)
			}
			paging := request.Paging{DefaultLimit: cfg.Search.DefaultLimit, MaxLimit: cfg.Search.MaxLimit}
			return runPlan(cmd, registry, paging, f, args)
		},
	}
	cmd.Flags().StringVarP(&f.collection, "collection", "c", "", "collection to search (required)")
	cmd.Flags().StringVar(&f.namespaces, "namespaces", "", "comma-separated namespace restriction")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "page size (default search.default_limit)")
	cmd.Flags().IntVar(&f.offset, "offset", 0, "results to skip")
	cmd.Flags().BoolVar(&f.mongo, "mongo", false, "print the MongoDB aggregation instead of the stage list")
	_ = cmd.MarkFlagRequired("collection")
	return cmd
}

func runPlan(
	cmd *cobra.Command, registry *domcol.Registry, paging request.Paging, f *planFlags, args []string,
) error {
	params, err := parseCriteriaArgs(args)
	if err != nil {
		return err
	}
	req, err := request.New(f.collection, params, f.namespaces, f.offset, f.limit, nil, paging)
	if err != nil {
		return err
	}

	plan, err := searchuc.New(nil, registry, nil, nil).Plan(cmd.Context(), &req)
	if err != nil {
		return err
	}

	if f.mongo {
		return printMongo(cmd.OutOrStdout(), plan)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), plan.String())
	return err
}

// parseCriteriaArgs turns name=criterion arguments into search parameters.
// A bare name means "match any" for that descriptor.
func parseCriteriaArgs(args []string) (map[string]string, error) {
	params := make(map[string]string, len(args))
	for _, arg := range args {
		name, criterion, _ := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("invalid argument %q, expected descriptor=criterion", arg)
		}
		if _, dup := params[name]; dup {
			return nil, fmt.Errorf("descriptor %q given twice", name)
		}
		params[name] = criterion
	}
	return params, nil
}

func printMongo(w io.Writer, plan pipeline.Plan) error {
	stages, err := dbMongo.Compile(plan.Stages)
	if err != nil {
		return err
	}
	for _, stage := range stages {
		out, err := bson.MarshalExtJSON(stage, false, false)
		if err != nil {
			return fmt.Errorf("render stage: %w", err)
		}
		if _, err := fmt.Fprintln(w, string(out)); err != nil {
			return err
		}
	}
	return nil
}
