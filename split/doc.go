// Package split re-partitions a vector file and its label file into aligned
// train and test shards.
//
// The partition is positional: with N rows and fraction p the first
// floor(N*p) rows form the train shard and the rest form the test shard. Rows
// are never shuffled, so ground truth computed against a shard stays
// reproducible.
//
// Rows are streamed one at a time. Nothing is written until the inputs have
// been validated, and the four outputs only appear under their final names
// once every one of them has been fully written.
package split
