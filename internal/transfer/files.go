package transfer

import (
	"fmt"
	"os"

	"github.com/ginjaninja78/ciim-report-sync/internal/filesafety"
	"github.com/ginjaninja78/ciim-report-sync/internal/mapping"
	"github.com/ginjaninja78/ciim-report-sync/internal/sheet"
)

// FileJob names the workbooks and sheets of a single file-to-file transfer.
type FileJob struct {
	Source      string
	SourceSheet string
	Dest        string
	DestSheet   string

	// Trim removes destination rows below the last written row.
	Trim bool
}

// TransferFile runs one transfer between two workbooks on disk. Both files
// must be writable (not open elsewhere); the destination is saved once,
// only when the transfer succeeded and wrote at least one row.
func (e *Engine) TransferFile(job FileJob, table mapping.Table, opts Options) (Result, error) {
	for _, p := range []string{job.Source, job.Dest} {
		if _, err := os.Stat(p); err != nil {
			return Result{}, fmt.Errorf("cannot transfer: %w", err)
		}
	}
	if err := filesafety.EnsureWritable(job.Source, job.Dest); err != nil {
		return Result{}, err
	}

	srcBook, err := sheet.Open(job.Source)
	if err != nil {
		return Result{}, err
	}
	defer srcBook.Close()

	dstBook, err := sheet.Open(job.Dest)
	if err != nil {
		return Result{}, err
	}
	defer dstBook.Close()

	src, err := srcBook.Sheet(job.SourceSheet)
	if err != nil {
		return Result{}, err
	}
	dst, err := dstBook.Sheet(job.DestSheet)
	if err != nil {
		return Result{}, err
	}

	res, err := e.Transfer(src, dst, table, opts)
	if err != nil {
		return res, err
	}
	if res.Empty() {
		return res, nil
	}

	if job.Trim {
		opts.applyDefaults()
		if _, err := TrimTrailingRows(dst, opts.DestStartRow, res.RowsTransferred); err != nil {
			return res, err
		}
	}

	if err := dstBook.Save(); err != nil {
		return res, err
	}
	return res, nil
}
