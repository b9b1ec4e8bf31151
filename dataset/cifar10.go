package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hupe1980/vecprep/errs"
	"github.com/hupe1980/vecprep/labels"
	"github.com/hupe1980/vecprep/vecfile"
)

// CIFAR-10 binary layout: one label byte followed by a 32x32 image stored as
// three 1024-byte planes (red, green, blue).
const (
	cifarSide     = 32
	cifarChannels = 3
	cifarPixels   = cifarSide * cifarSide
	CIFAR10Dim    = cifarPixels * cifarChannels
	cifarRecord   = 1 + CIFAR10Dim
)

// CIFAR10TrainFiles and CIFAR10TestFile name the batches in a
// cifar-10-batches-bin directory.
var (
	CIFAR10TrainFiles = []string{
		"data_batch_1.bin", "data_batch_2.bin", "data_batch_3.bin", "data_batch_4.bin", "data_batch_5.bin",
	}
	CIFAR10TestFile = "test_batch.bin"
)

// LoadCIFAR10 loads the training batches as the base set and the test batch
// as the query set. Each image becomes a 3072-wide float32 row of raw pixel
// values in [0, 255], in height, width, channel order (RGB interleaved per
// pixel). Labels are the class ids 0-9.
func LoadCIFAR10(dir string) (Dataset, error) {
	base, baseLabels, err := readCIFARBatches(dir, CIFAR10TrainFiles)
	if err != nil {
		return Dataset{}, err
	}
	query, queryLabels, err := readCIFARBatches(dir, []string{CIFAR10TestFile})
	if err != nil {
		return Dataset{}, err
	}
	return Dataset{
		Name:        "cifar10",
		Base:        base,
		Query:       query,
		BaseLabels:  baseLabels,
		QueryLabels: queryLabels,
	}, nil
}

func readCIFARBatches(dir string, files []string) (vecfile.Matrix[float32], labels.Set, error) {
	var rows int64
	for _, name := range files {
		path := filepath.Join(dir, name)
		fi, err := os.Stat(path)
		if err != nil {
			return vecfile.Matrix[float32]{}, nil, errs.IO("read cifar10", path, err)
		}
		rows += fi.Size() / cifarRecord
	}

	data := make([]float32, 0, rows*CIFAR10Dim)
	lbls := make(labels.Set, 0, rows)
	for _, name := range files {
		var err error
		data, lbls, err = readCIFARBatch(filepath.Join(dir, name), data, lbls)
		if err != nil {
			return vecfile.Matrix[float32]{}, nil, err
		}
	}
	return vecfile.Matrix[float32]{Rows: len(lbls), Cols: CIFAR10Dim, Data: data}, lbls, nil
}

// readCIFARBatch appends the records of one batch file.
func readCIFARBatch(path string, data []float32, lbls labels.Set) ([]float32, labels.Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errs.IO("read cifar10", path, err)
	}
	defer f.Close()

	data, lbls, err = ReadCIFAR10(bufio.NewReaderSize(f, 64*cifarRecord), data, lbls)
	if err != nil {
		var e *errs.Error
		if errors.As(err, &e) {
			e.Path = path
		}
		return nil, nil, err
	}
	return data, lbls, nil
}

// ReadCIFAR10 appends every record in r to data and lbls.
func ReadCIFAR10(r io.Reader, data []float32, lbls labels.Set) ([]float32, labels.Set, error) {
	rec := make([]byte, cifarRecord)
	for {
		n, err := io.ReadFull(r, rec)
		if errors.Is(err, io.EOF) {
			return data, lbls, nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, nil, errs.Format("read cifar10", "record %d has %d of %d bytes", len(lbls), n, cifarRecord)
		}
		if err != nil {
			return nil, nil, errs.IO("read cifar10", "", err)
		}
		if rec[0] > 9 {
			return nil, nil, errs.Format("read cifar10", "record %d has label %d", len(lbls), rec[0])
		}

		lbls = append(lbls, strconv.Itoa(int(rec[0])))
		data = appendHWC(data, rec[1:])
	}
}

// appendHWC converts one channel-planar image to interleaved pixels.
func appendHWC(dst []float32, planes []byte) []float32 {
	for p := range cifarPixels {
		for c := range cifarChannels {
			dst = append(dst, float32(planes[c*cifarPixels+p]))
		}
	}
	return dst
}

// CIFAR10Record encodes one record in the batch format. It is the inverse of
// ReadCIFAR10 for a single image and exists for building fixtures.
func CIFAR10Record(label byte, hwc []byte) ([]byte, error) {
	if len(hwc) != CIFAR10Dim {
		return nil, fmt.Errorf("image has %d bytes, want %d", len(hwc), CIFAR10Dim)
	}
	rec := make([]byte, cifarRecord)
	rec[0] = label
	for p := range cifarPixels {
		for c := range cifarChannels {
			rec[1+c*cifarPixels+p] = hwc[p*cifarChannels+c]
		}
	}
	return rec, nil
}
