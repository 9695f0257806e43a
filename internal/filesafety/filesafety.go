// =============================================================================
// CIIM Report Sync - File Safety
// =============================================================================
//
// Guards every write to a report:
//   - IsLocked / EnsureWritable refuse to touch a workbook open elsewhere
//   - EnsureTemplate instantiates a report from its template without ever
//     silently replacing an existing report
//
// Lock detection is advisory: a file can be opened by someone else between
// the check and the save. Callers check right before opening for write and
// save once at the end to keep that window short.
//
// =============================================================================

package filesafety

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ginjaninja78/ciim-report-sync/pkg/utils"
)

// LockedError names a file that is open elsewhere.
type LockedError struct {
	Path string
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("%s is open in another program; close it and try again", filepath.Base(e.Path))
}

// ErrOverwriteDeclined is returned when the caller declines to replace an
// existing report.
var ErrOverwriteDeclined = errors.New("overwrite declined")

// IsLocked reports whether path exists and cannot be opened for appending,
// or has an Office owner file ("~$name") next to it.
func IsLocked(path string) bool {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return false
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return true
	}
	f.Close()

	return utils.FileExists(ownerFile(path))
}

// ownerFile is the lock file Excel writes beside an open workbook.
func ownerFile(path string) string {
	return filepath.Join(filepath.Dir(path), "~$"+filepath.Base(path))
}

// EnsureWritable fails with a *LockedError for the first locked path.
func EnsureWritable(paths ...string) error {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if IsLocked(p) {
			return &LockedError{Path: p}
		}
	}
	return nil
}

// =============================================================================
// TEMPLATE INSTANTIATION
// =============================================================================

// Policy says what to do when the destination already exists.
type Policy int

const (
	// IfMissing leaves an existing report untouched.
	IfMissing Policy = iota
	// ConfirmOverwrite asks the caller and replaces the report with a fresh
	// template copy when confirmed.
	ConfirmOverwrite
)

// Confirm is asked before an existing report is replaced.
type Confirm func(path string) bool

// Always confirms every overwrite.
func Always(string) bool { return true }

// Never declines every overwrite.
func Never(string) bool { return false }

// EnsureTemplate makes dest exist as a copy of template.
//
// PARAMETERS:
//   - dest: the report to create.
//   - template: the blank template workbook.
//   - policy: what to do when dest exists.
//   - confirm: asked under ConfirmOverwrite; nil declines.
//
// RETURNS:
//   - true when the template was copied.
//   - ErrOverwriteDeclined when an overwrite was declined.
//   - *LockedError when dest must be replaced but is open.
func EnsureTemplate(dest, template string, policy Policy, confirm Confirm) (bool, error) {
	if utils.FileExists(dest) {
		if policy == IfMissing {
			return false, nil
		}
		if confirm == nil || !confirm(dest) {
			return false, fmt.Errorf("%s: %w", filepath.Base(dest), ErrOverwriteDeclined)
		}
		if err := EnsureWritable(dest); err != nil {
			return false, err
		}
	}

	if !utils.FileExists(template) {
		return false, fmt.Errorf("template not found: %s", template)
	}
	if _, err := utils.EnsureDirectories(filepath.Dir(dest)); err != nil {
		return false, err
	}
	if err := utils.CopyFile(template, dest); err != nil {
		return false, fmt.Errorf("failed to copy template to %s: %w", dest, err)
	}
	return true, nil
}
