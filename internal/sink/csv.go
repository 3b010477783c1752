// Append-only CSV output sink. Each record is written and flushed
// immediately so partial results survive a crash mid-run.

package sink

import (
	"encoding/csv"
	"fmt"
	"os"

	"go-linkedin-harvester/internal/scraper"
)

// CSVWriter appends job records to a single CSV file. A header row is
// written only when the file is created empty; a pre-existing file is
// appended to as-is (a foreign header is a documented limitation).
type CSVWriter struct {
	file *os.File
	w    *csv.Writer
}

func Open(path string) (*CSVWriter, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open output file %s: %w", path, err)
	}

	cw := &CSVWriter{file: f, w: csv.NewWriter(f)}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat output file %s: %w", path, err)
	}
	if info.Size() == 0 {
		if err := cw.write(scraper.CSVHeader); err != nil {
			f.Close()
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	return cw, nil
}

// Append writes one record and flushes it to the file before returning, so
// no partial row is ever observable and a later crash cannot lose it.
func (cw *CSVWriter) Append(rec scraper.JobRecord) error {
	if err := cw.write(rec.CSVRow()); err != nil {
		return fmt.Errorf("append record %s: %w", rec.URL, err)
	}
	return nil
}

func (cw *CSVWriter) write(row []string) error {
	if err := cw.w.Write(row); err != nil {
		return err
	}
	cw.w.Flush()
	return cw.w.Error()
}

// Close flushes and closes the file, leaving it valid and readable.
func (cw *CSVWriter) Close() error {
	cw.w.Flush()
	if err := cw.w.Error(); err != nil {
		cw.file.Close()
		return err
	}
	return cw.file.Close()
}
