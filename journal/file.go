package journal

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"
)

// xz-compressed CSV files carry this suffix.
const compressedExt = ".xz"

// WriteCSVFile writes trades to path as CSV, xz-compressed when path ends
// in ".xz". The file is written to a temporary name and renamed on success.
func WriteCSVFile(path string, trades []Trade) (err error) {
	tmp := path + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	var w io.Writer = f
	var zw *xz.Writer
	if strings.HasSuffix(path, compressedExt) {
		zw, err = xz.NewWriter(f)
		if err != nil {
			return fmt.Errorf("xz writer: %w", err)
		}
		w = zw
	}

	if err = WriteCSV(w, trades); err != nil {
		return err
	}
	if zw != nil {
		if err = zw.Close(); err != nil {
			return fmt.Errorf("xz close: %w", err)
		}
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ReadCSVFile reads trades from a CSV file written by WriteCSVFile or any
// other tool, decompressing ".xz" files.
func ReadCSVFile(path string) ([]Trade, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, compressedExt) {
		zr, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		r = zr
	}
	return ReadCSV(r)
}
