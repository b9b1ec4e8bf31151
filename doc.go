// Package vecprep prepares vector datasets for ANN benchmarking.
//
// It converts labeled datasets into the fixed binary vector format
// (little-endian uint32 rows, uint32 cols, then row-major payload), computes
// exact k-NN ground truth for a query set against a base set, and splits an
// existing vector file plus its label file into aligned train/test shards.
//
// # Quick Start
//
// Prepare a dataset:
//
//	res, err := vecprep.Prepare(ctx, dataset.Source{
//	    Kind: dataset.KindCIFAR10,
//	    Path: "./cifar-10-batches-bin",
//	}, "./out", 100, vecprep.WithNormalize(0))
//
// This writes cifar10_base.fbin, cifar10_query.fbin, cifar10_gt.ibin,
// cifar10_labels.txt and cifar10_query_labels.txt. All files become visible
// together; a failed run leaves none of them behind.
//
// Ground truth for existing files:
//
//	_, err := vecprep.ComputeGroundTruth(ctx, vecprep.GroundTruthFiles{
//	    Base:   "base.fbin",
//	    Query:  "query.fbin",
//	    Output: "gt.ibin",
//	}, 100, vecprep.WithMetric(distance.MetricCosine))
//
// Train/test split (prefix split, not randomized):
//
//	res, err := vecprep.Split(ctx, "vectors.bin", "label_file.txt", 70)
//
// # Ground Truth
//
// Ground truth is exhaustive: every query is compared against every base
// vector. Distances accumulate in float64 and equal distances are ordered by
// ascending base index, so results are deterministic across runs and worker
// counts.
//
// # Observability
//
// Pass WithLogger for structured slog output and WithMetricsCollector to
// record per-operation counters. Progress of long ground-truth runs is logged
// at most once per progress interval.
//
// # Publishing
//
// WithPublish uploads committed outputs to a blobstore.Store (local
// directory, S3 or MinIO).
package vecprep
