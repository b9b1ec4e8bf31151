package vecprep

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/hupe1980/vecprep/blobstore"
	"github.com/hupe1980/vecprep/dataset"
	"github.com/hupe1980/vecprep/errs"
	"github.com/hupe1980/vecprep/groundtruth"
	"github.com/hupe1980/vecprep/labels"
	"github.com/hupe1980/vecprep/split"
	"github.com/hupe1980/vecprep/vecfile"
)

// Outputs names the files written by Prepare. Empty fields were not written.
type Outputs struct {
	Base        string
	Query       string
	GroundTruth string
	Distances   string
	BaseLabels  string
	QueryLabels string
}

// All returns the non-empty paths in a fixed order.
func (o Outputs) All() []string {
	var out []string
	for _, p := range []string{o.Base, o.Query, o.GroundTruth, o.Distances, o.BaseLabels, o.QueryLabels} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// OutputPaths returns the file names Prepare uses for a dataset called name
// in dir. Vector files carry the suffix of c.
func OutputPaths(dir, name string, c vecfile.Compression, labeled, distances bool) Outputs {
	ext := compressionSuffix(c)
	out := Outputs{
		Base:        filepath.Join(dir, name+"_base.fbin"+ext),
		Query:       filepath.Join(dir, name+"_query.fbin"+ext),
		GroundTruth: filepath.Join(dir, name+"_gt.ibin"+ext),
	}
	if distances {
		out.Distances = filepath.Join(dir, name+"_gt_dist.fbin"+ext)
	}
	if labeled {
		out.BaseLabels = filepath.Join(dir, name+"_labels.txt")
		out.QueryLabels = filepath.Join(dir, name+"_query_labels.txt")
	}
	return out
}

func compressionSuffix(c vecfile.Compression) string {
	switch c {
	case vecfile.CompressionZstd:
		return ".zst"
	case vecfile.CompressionLZ4:
		return ".lz4"
	default:
		return ""
	}
}

// PrepareResult describes a finished Prepare run.
type PrepareResult struct {
	Name    string
	Base    vecfile.Header
	Query   vecfile.Header
	K       int
	Files   Outputs
	Elapsed time.Duration
}

// Prepare loads src, optionally normalizes it, computes the exact k nearest
// base neighbors of every query and writes vectors, ground truth and labels
// into outDir. All files appear together or not at all. With WithPublish the
// committed files are uploaded afterwards.
func Prepare(ctx context.Context, src dataset.Source, outDir string, k int, optFns ...Option) (*PrepareResult, error) {
	o := applyOptions(optFns)
	start := time.Now()

	ds, err := loadDataset(ctx, src, &o)
	if err != nil {
		return nil, err
	}
	log := o.logger.WithDataset(ds.Name)

	if o.filterByLabel && !ds.Labeled() {
		return nil, errs.Validation("prepare", "label filter requested but dataset %q has no labels", ds.Name)
	}

	if o.normalize {
		ds.Normalize(o.epsilon)
		log.DebugContext(ctx, "vectors normalized", "epsilon", o.epsilon)
	}

	var baseLabels, queryLabels labels.Set
	if o.filterByLabel {
		baseLabels, queryLabels = ds.BaseLabels, ds.QueryLabels
	}

	nm, err := computeNeighbors(ctx, ds.Base, ds.Query, k, baseLabels, queryLabels, &o, log)
	if err != nil {
		return nil, err
	}

	if err := o.fs.MkdirAll(outDir, 0o755); err != nil {
		return nil, errs.IO("prepare", outDir, err)
	}

	files := OutputPaths(outDir, ds.Name, o.compression, ds.Labeled(), o.writeDistances)
	st := newStaging(o.fs)
	if err := stagePrepare(st, files, ds, nm); err != nil {
		st.abort()
		return nil, err
	}
	if err := st.commit(); err != nil {
		return nil, err
	}
	st.report(ctx, &o)

	if err := publish(ctx, &o, st.paths()); err != nil {
		return nil, err
	}

	baseHdr, _ := ds.Base.Header()
	queryHdr, _ := ds.Query.Header()

	return &PrepareResult{
		Name:    ds.Name,
		Base:    baseHdr,
		Query:   queryHdr,
		K:       nm.K,
		Files:   files,
		Elapsed: time.Since(start),
	}, nil
}

func loadDataset(ctx context.Context, src dataset.Source, o *options) (dataset.Dataset, error) {
	name := src.Name
	if name == "" {
		name = string(src.Kind)
	}

	start := time.Now()
	ds, err := dataset.Load(src)
	o.metricsCollector.RecordLoad(name, ds.Base.Rows+ds.Query.Rows, time.Since(start), err)
	o.logger.LogLoad(ctx, name, ds.Base.Rows, ds.Query.Rows, ds.Base.Cols, err)
	return ds, err
}

func stagePrepare(st *staging, files Outputs, ds dataset.Dataset, nm groundtruth.NeighborMatrix) error {
	if err := stageMatrix(st, files.Base, ds.Base); err != nil {
		return err
	}
	if err := stageMatrix(st, files.Query, ds.Query); err != nil {
		return err
	}
	if err := stageMatrix(st, files.GroundTruth, nm.IndexMatrix()); err != nil {
		return err
	}
	if files.Distances != "" {
		if err := stageMatrix(st, files.Distances, nm.DistanceMatrix()); err != nil {
			return err
		}
	}
	if files.BaseLabels != "" {
		if err := stageLabels(st, files.BaseLabels, ds.BaseLabels); err != nil {
			return err
		}
		if err := stageLabels(st, files.QueryLabels, ds.QueryLabels); err != nil {
			return err
		}
	}
	return nil
}

func computeNeighbors(ctx context.Context, base, queries vecfile.Matrix[float32], k int, baseLabels, queryLabels labels.Set, o *options, log *Logger) (groundtruth.NeighborMatrix, error) {
	gtOpts := o.groundTruthOptions()
	gtOpts = append(gtOpts, groundtruth.WithProgress(func(p groundtruth.Progress) {
		log.LogProgress(ctx, p)
		if o.onProgress != nil {
			o.onProgress(p)
		}
	}, o.progressInterval))
	if baseLabels != nil || queryLabels != nil {
		gtOpts = append(gtOpts, groundtruth.WithFilter(baseLabels, queryLabels))
	}

	start := time.Now()
	nm, err := groundtruth.Compute(ctx, base, queries, k, gtOpts...)
	elapsed := time.Since(start)

	o.metricsCollector.RecordGroundTruth(queries.Rows, k, elapsed, err)
	log.LogGroundTruth(ctx, queries.Rows, k, elapsed, err)

	return nm, err
}

func publish(ctx context.Context, o *options, paths []string) error {
	if o.store == nil {
		return nil
	}

	p := &blobstore.Publisher{
		Store:     o.store,
		Prefix:    o.publishPrefix,
		Resources: o.resources,
	}

	start := time.Now()
	err := p.Publish(ctx, paths...)
	o.metricsCollector.RecordPublish(len(paths), time.Since(start), err)
	o.logger.LogPublish(ctx, len(paths), err)

	return err
}

// GroundTruthFiles names the inputs and outputs of ComputeGroundTruth.
type GroundTruthFiles struct {
	Base   string
	Query  string
	Output string

	// Distances, when set, receives the float32 distance matrix.
	Distances string

	// BaseLabels and QueryLabels, when both set, restrict each query to base
	// rows carrying the same label.
	BaseLabels  string
	QueryLabels string
}

// GroundTruthResult describes a finished ComputeGroundTruth run.
type GroundTruthResult struct {
	Base    vecfile.Header
	Query   vecfile.Header
	K       int
	Elapsed time.Duration
}

// ComputeGroundTruth reads base and query vector files, computes the exact k
// nearest neighbors and writes them to files.Output. Uncompressed base files
// are memory-mapped unless WithoutMmap is given.
func ComputeGroundTruth(ctx context.Context, files GroundTruthFiles, k int, optFns ...Option) (*GroundTruthResult, error) {
	o := applyOptions(optFns)
	log := o.logger.WithPath(files.Output).WithK(k)
	start := time.Now()

	if (files.BaseLabels == "") != (files.QueryLabels == "") {
		return nil, errs.Validation("ground truth", "base and query label files must be given together")
	}

	base, release, err := openBase(files.Base, o.mmap)
	if err != nil {
		return nil, err
	}
	defer release()

	queries, err := vecfile.ReadFile[float32](files.Query)
	if err != nil {
		return nil, err
	}

	var baseLabels, queryLabels labels.Set
	if files.BaseLabels != "" {
		if baseLabels, err = labels.Read(files.BaseLabels); err != nil {
			return nil, err
		}
		if queryLabels, err = labels.Read(files.QueryLabels); err != nil {
			return nil, err
		}
	}

	nm, err := computeNeighbors(ctx, base, queries, k, baseLabels, queryLabels, &o, log)
	if err != nil {
		return nil, err
	}

	st := newStaging(o.fs)
	if err := stageGroundTruth(st, files, nm); err != nil {
		st.abort()
		return nil, err
	}
	if err := st.commit(); err != nil {
		return nil, err
	}
	st.report(ctx, &o)

	if err := publish(ctx, &o, st.paths()); err != nil {
		return nil, err
	}

	baseHdr, _ := base.Header()
	queryHdr, _ := queries.Header()

	return &GroundTruthResult{
		Base:    baseHdr,
		Query:   queryHdr,
		K:       nm.K,
		Elapsed: time.Since(start),
	}, nil
}

func openBase(path string, useMmap bool) (vecfile.Matrix[float32], func(), error) {
	if useMmap && vecfile.CompressionFor(path) == vecfile.CompressionNone {
		mv, err := vecfile.OpenMapped[float32](path)
		if err != nil {
			return vecfile.Matrix[float32]{}, nil, err
		}
		return mv.Matrix(), func() { _ = mv.Close() }, nil
	}

	m, err := vecfile.ReadFile[float32](path)
	if err != nil {
		return vecfile.Matrix[float32]{}, nil, err
	}
	return m, func() {}, nil
}

func stageGroundTruth(st *staging, files GroundTruthFiles, nm groundtruth.NeighborMatrix) error {
	if err := stageMatrix(st, files.Output, nm.IndexMatrix()); err != nil {
		return err
	}
	if files.Distances != "" {
		return stageMatrix(st, files.Distances, nm.DistanceMatrix())
	}
	return nil
}

// Split partitions the vector file input and its label file into train and
// test shards next to input. percent is the train share in (0, 100]. The
// first split.Counts(N, percent/100) rows become the train shard.
func Split(ctx context.Context, input, labelPath string, percent float64, optFns ...Option) (split.Result, error) {
	o := applyOptions(optFns)
	log := o.logger.WithPath(input)

	start := time.Now()
	res, err := split.SplitFile(ctx, input, labelPath, split.FractionFromPercent(percent), split.DerivePaths(input),
		split.WithFileSystem(o.fs))
	o.metricsCollector.RecordSplit(res.Rows, time.Since(start), err)
	log.LogSplit(ctx, res, err)
	if err != nil {
		return res, err
	}

	if err := publish(ctx, &o, res.Paths.All()); err != nil {
		return res, err
	}
	return res, nil
}

// Recall reads a ground-truth file and a result file of neighbor indices and
// returns the mean recall@k.
func Recall(truthPath, resultsPath string, k int) (float64, error) {
	truth, err := groundtruth.ReadFile(truthPath)
	if err != nil {
		return 0, err
	}
	results, err := vecfile.ReadFile[uint32](resultsPath)
	if err != nil {
		return 0, err
	}
	return groundtruth.Recall(truth, results, k)
}

// Convert rewrites a texmex file into the binary format or back. Supported
// directions: .fvecs to float32 files, .ivecs to uint32 files, and float32
// files to .fvecs. Output compression follows the output suffix.
func Convert(input, output string) (vecfile.Header, error) {
	in := vecExt(input)
	out := vecExt(output)

	switch {
	case in == ".fvecs" && out != ".fvecs" && out != ".ivecs":
		m, err := dataset.LoadFvecs(input)
		if err != nil {
			return vecfile.Header{}, err
		}
		if err := vecfile.WriteFile(output, m); err != nil {
			return vecfile.Header{}, err
		}
		return m.Header()
	case in == ".ivecs" && out != ".fvecs" && out != ".ivecs":
		m, err := dataset.LoadIvecs(input)
		if err != nil {
			return vecfile.Header{}, err
		}
		if err := vecfile.WriteFile(output, m); err != nil {
			return vecfile.Header{}, err
		}
		return m.Header()
	case in != ".fvecs" && in != ".ivecs" && out == ".fvecs":
		m, err := vecfile.ReadFile[float32](input)
		if err != nil {
			return vecfile.Header{}, err
		}
		if err := dataset.WriteFvecs(output, m); err != nil {
			return vecfile.Header{}, err
		}
		return m.Header()
	default:
		return vecfile.Header{}, errs.Validation("convert", "cannot convert %s to %s", filepath.Base(input), filepath.Base(output))
	}
}

func vecExt(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
