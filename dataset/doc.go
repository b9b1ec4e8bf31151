// Package dataset loads labeled vector datasets into memory.
//
// Supported sources:
//
//   - CIFAR-10 binary batches (data_batch_1.bin .. data_batch_5.bin as the
//     base set, test_batch.bin as the query set).
//   - Parquet files with a float list column and an optional label column.
//   - texmex .fvecs/.ivecs files (SIFT, GIST and friends).
//
// Every loader returns a Dataset whose base and query matrices share one
// dimension. Labels are optional; when present there is one per row.
package dataset
