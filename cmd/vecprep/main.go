// Command vecprep prepares vector datasets for ANN benchmarking.
//
// Usage:
//
//	vecprep prepare --dataset cifar10 --source ./cifar-10-batches-bin --out-dir ./out
//	vecprep groundtruth --base base.fbin --query query.fbin --k 100 --out gt.ibin
//	vecprep split vectors.bin 70 --labels label_file.txt
//	vecprep inspect gt.ibin
//
// Settings can also be given as VECPREP_* environment variables or in a .env
// file in the working directory.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := LoadConfig(".env")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	a := &app{cfg: &cfg, stdout: stdout, stderr: stderr}
	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	runErr := root.ExecuteContext(ctx)
	if err := a.finish(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
