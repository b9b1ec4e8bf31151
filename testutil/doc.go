// Package testutil provides testing utilities for vecprep.
//
// This package is intended for use in tests only. It provides seeded vector
// generators and a reference exact search that sorts every distance, which
// the heap-based ground-truth engine is checked against.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	base := rng.UniformMatrix(1000, 32)      // uniform [0, 1)
//	queries := rng.UnitMatrix(50, 32)        // on the unit sphere
//	grid := testutil.GridMatrix(64, 4, 3)    // small integers, many ties
//
// # Exact Search
//
//	want := testutil.BruteForce(base, queries, k, distance.L2)
//
// # Recall Verification
//
//	recall := testutil.ComputeRecall(want[0], got.Row(0))
package testutil
