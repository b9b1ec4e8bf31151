package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vecprep"
	"github.com/hupe1980/vecprep/dataset"
	"github.com/hupe1980/vecprep/labels"
	"github.com/hupe1980/vecprep/vecfile"
)

func newRootCommand(a *app) *cobra.Command {
	cfg := a.cfg

	root := &cobra.Command{
		Use:           "vecprep",
		Short:         "Prepare vector datasets and exact ground truth for ANN benchmarks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: json or text")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	pf.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent ground-truth blocks (0 = GOMAXPROCS)")
	pf.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "queries per ground-truth block")
	pf.StringVar(&cfg.Metric, "metric", cfg.Metric, "distance metric: l2, sql2, cosine or l1")
	pf.DurationVar(&cfg.ProgressInterval, "progress-interval", cfg.ProgressInterval, "minimum time between progress logs")
	pf.Int64Var(&cfg.MaxMemory, "max-memory", cfg.MaxMemory, "memory budget for in-flight ground-truth blocks (heap plus result rows) in bytes (0 = unlimited)")
	pf.Int64Var(&cfg.IOLimit, "io-limit", cfg.IOLimit, "publish read bandwidth in bytes per second (0 = unlimited)")
	pf.StringVar(&cfg.MetricsFile, "metrics-file", cfg.MetricsFile, "write Prometheus metrics to this textfile on exit")
	pf.StringVar(&cfg.Publish, "publish", cfg.Publish, "upload outputs to a directory, s3://bucket/prefix or minio://bucket/prefix")

	root.AddCommand(
		newPrepareCommand(a),
		newGroundTruthCommand(a),
		newSplitCommand(a),
		newInspectCommand(a),
		newRecallCommand(a),
		newConvertCommand(a),
	)
	return root
}

func newPrepareCommand(a *app) *cobra.Command {
	var (
		kind        string
		src         dataset.Source
		outDir      string
		normalize   bool
		filter      bool
		distances   bool
		compression string
	)

	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Convert a dataset to fbin/ibin files and compute its ground truth",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if src.Kind, err = dataset.ParseKind(kind); err != nil {
				return err
			}
			comp, err := parseCompression(compression)
			if err != nil {
				return err
			}

			opts, err := a.options(cmd.Context())
			if err != nil {
				return err
			}
			if normalize {
				opts = append(opts, vecprep.WithNormalize(0))
			}
			if filter {
				opts = append(opts, vecprep.WithLabelFilter())
			}
			if distances {
				opts = append(opts, vecprep.WithDistances())
			}
			opts = append(opts, vecprep.WithCompression(comp))

			res, err := vecprep.Prepare(cmd.Context(), src, outDir, a.cfg.K, opts...)
			if err != nil {
				return err
			}
			for _, p := range res.Files.All() {
				fmt.Fprintln(a.stdout, p)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&kind, "dataset", "", "dataset kind: cifar10, parquet or fvecs")
	f.StringVar(&src.Path, "source", "", "CIFAR-10 batch directory, or base parquet/fvecs file")
	f.StringVar(&src.QueryPath, "query", "", "query parquet/fvecs file")
	f.StringVar(&src.Name, "name", "", "output file prefix (default: dataset kind)")
	f.StringVar(&src.VectorColumn, "vector-column", dataset.DefaultVectorColumn, "parquet vector column")
	f.StringVar(&src.LabelColumn, "label-column", "", "parquet label column")
	f.StringVar(&src.BaseLabels, "base-labels", "", "fvecs base label file")
	f.StringVar(&src.QueryLabels, "query-labels", "", "fvecs query label file")
	f.StringVar(&outDir, "out-dir", ".", "output directory")
	f.IntVar(&a.cfg.K, "k", a.cfg.K, "neighbors per query")
	f.BoolVar(&normalize, "normalize", false, "L2-normalize vectors before writing")
	f.BoolVar(&filter, "filter", false, "only consider base rows with the query's label")
	f.BoolVar(&distances, "distances", false, "also write the ground-truth distance matrix")
	f.StringVar(&compression, "compression", "none", "vector file compression: none, zstd or lz4")
	_ = cmd.MarkFlagRequired("dataset")
	_ = cmd.MarkFlagRequired("source")

	return cmd
}

func newGroundTruthCommand(a *app) *cobra.Command {
	var (
		files  vecprep.GroundTruthFiles
		noMmap bool
	)

	cmd := &cobra.Command{
		Use:   "groundtruth",
		Short: "Compute exact k nearest neighbors of query vectors in a base file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.options(cmd.Context())
			if err != nil {
				return err
			}
			if noMmap {
				opts = append(opts, vecprep.WithoutMmap())
			}

			res, err := vecprep.ComputeGroundTruth(cmd.Context(), files, a.cfg.K, opts...)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%s: queries=%d k=%d\n", files.Output, res.Query.Rows, res.K)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&files.Base, "base", "", "base vector file")
	f.StringVar(&files.Query, "query", "", "query vector file")
	f.StringVar(&files.Output, "out", "", "output neighbor index file")
	f.StringVar(&files.Distances, "distances", "", "optional output distance file")
	f.StringVar(&files.BaseLabels, "base-labels", "", "base label file (enables label filtering)")
	f.StringVar(&files.QueryLabels, "query-labels", "", "query label file (enables label filtering)")
	f.IntVar(&a.cfg.K, "k", a.cfg.K, "neighbors per query")
	f.BoolVar(&noMmap, "no-mmap", false, "decode the base file into memory instead of mapping it")
	_ = cmd.MarkFlagRequired("base")
	_ = cmd.MarkFlagRequired("query")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func newSplitCommand(a *app) *cobra.Command {
	var labelPath string

	cmd := &cobra.Command{
		Use:   "split <input.bin> <train-percent>",
		Short: "Split a vector file and its labels into train and test shards",
		Long: "Split writes the first floor(N*percent/100) rows to <base>_train.bin and " +
			"the rest to <base>_test.bin, with matching label files. Rows are not shuffled.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pct, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid train percent %q: %w", args[1], err)
			}

			opts, err := a.options(cmd.Context())
			if err != nil {
				return err
			}

			res, err := vecprep.Split(cmd.Context(), args[0], labelPath, pct, opts...)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "train=%d test=%d cols=%d\n", res.Train, res.Test, res.Cols)
			for _, p := range res.Paths.All() {
				fmt.Fprintln(a.stdout, p)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&labelPath, "labels", labels.DefaultFile, "label file with one label per row")
	return cmd
}

func newInspectCommand(a *app) *cobra.Command {
	var (
		head     int
		elemType string
	)

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print the header of a vector file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			h, err := vecfile.ReadHeader(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%s: rows=%d cols=%d payload=%d bytes\n", path, h.Rows, h.Cols, h.PayloadBytes())

			if head <= 0 {
				return nil
			}
			switch elemType {
			case "float32":
				return printHead[float32](a.stdout, path, head)
			case "uint32":
				return printHead[uint32](a.stdout, path, head)
			default:
				return fmt.Errorf("unknown element type %q", elemType)
			}
		},
	}

	cmd.Flags().IntVar(&head, "head", 0, "also print the first n rows")
	cmd.Flags().StringVar(&elemType, "type", "float32", "element type for --head: float32 or uint32")
	return cmd
}

func printHead[T vecfile.Element](w io.Writer, path string, n int) error {
	fr, err := vecfile.Open[T](path)
	if err != nil {
		return err
	}
	defer fr.Close()

	row := make([]T, fr.Header().Cols)
	for i := 0; i < n && fr.Remaining() > 0; i++ {
		if err := fr.ReadRow(row); err != nil {
			return err
		}
		fmt.Fprintln(w, row)
	}
	return nil
}

func newRecallCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recall <truth.ibin> <results.ibin>",
		Short: "Compute recall@k of a neighbor file against ground truth",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := vecprep.Recall(args[0], args[1], a.cfg.K)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "recall@%d=%.6f\n", a.cfg.K, r)
			return nil
		},
	}

	cmd.Flags().IntVar(&a.cfg.K, "k", a.cfg.K, "neighbors per query")
	return cmd
}

func newConvertCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert between texmex .fvecs/.ivecs and the binary vector format",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := vecprep.Convert(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%s: rows=%d cols=%d\n", args[1], h.Rows, h.Cols)
			return nil
		},
	}
}

func parseCompression(s string) (vecfile.Compression, error) {
	switch s {
	case "", "none":
		return vecfile.CompressionNone, nil
	case "zstd":
		return vecfile.CompressionZstd, nil
	case "lz4":
		return vecfile.CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", s)
	}
}
