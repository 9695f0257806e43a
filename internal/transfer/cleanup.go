package transfer

import (
	"github.com/ginjaninja78/ciim-report-sync/internal/sheet"
)

// TrimTrailingRows deletes every row from firstDataRow+keep down to the last
// stored row. Rows are removed from the bottom up so that the indexes still
// to be removed never shift. Calling it again with the same arguments
// removes nothing.
//
// RETURNS:
//   - The number of rows removed.
func TrimTrailingRows(s *sheet.Sheet, firstDataRow, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	from := firstDataRow + keep

	last, err := s.MaxRow()
	if err != nil {
		return 0, err
	}

	removed := 0
	for row := last; row >= from; row-- {
		if err := s.RemoveRow(row); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
