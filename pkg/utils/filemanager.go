// =============================================================================
// CIIM Report Sync - File Manager Utility
// =============================================================================
//
// This module provides the filesystem chores around the report tree:
//   - Directory scaffolding
//   - File discovery
//   - Template copies
//   - Empty-folder cleanup
//   - Nomination file renaming
//   - Run logs and output file naming
//
// Nothing here knows about spreadsheets. Workflows in internal/report decide
// what to create; this package only does the file work.
//
// =============================================================================

package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates every directory that does not exist yet.
//
// RETURNS:
//   - The directories that were actually created, in argument order.
//   - An error if any directory cannot be created.
func EnsureDirectories(dirs ...string) ([]string, error) {
	var created []string
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(dir); err == nil {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return created, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		created = append(created, dir)
	}
	return created, nil
}

// DeleteEmptyFolders removes every empty directory below root, deepest
// first, so a folder emptied by removing its children is removed too. root
// itself is kept.
//
// RETURNS:
//   - The removed directories.
//   - An error if root cannot be walked.
func DeleteEmptyFolders(root string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	// Deeper paths sort after their parents; walk backwards.
	sort.Strings(dirs)
	var removed []string
	for i := len(dirs) - 1; i >= 0; i-- {
		entries, err := os.ReadDir(dirs[i])
		if err != nil || len(entries) > 0 {
			continue
		}
		if err := os.Remove(dirs[i]); err == nil {
			removed = append(removed, dirs[i])
		}
	}
	return removed, nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverFiles lists files in dir matching a glob pattern, sorted by name.
//
// PARAMETERS:
//   - dir: The directory to scan (not recursive).
//   - pattern: A glob such as "CIIM Report Table *.xlsx". Empty means "*".
func DiscoverFiles(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	var files []string
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		// Office lock files share the report's name.
		if strings.HasPrefix(filepath.Base(m), "~$") {
			continue
		}
		files = append(files, m)
	}
	sort.Strings(files)
	return files, nil
}

// DiscoverFilesRecursive lists files below dir whose base name matches
// pattern.
func DiscoverFilesRecursive(dir, pattern string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), "~$") {
			return nil
		}
		ok, err := filepath.Match(pattern, d.Name())
		if err != nil {
			return err
		}
		if ok {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// =============================================================================
// NOMINATION RENAMING
// =============================================================================

// nominationPattern matches "<ep>_<NM>_<YYYY-MM-DD>_<N1|N2>.<ext>".
var nominationPattern = regexp.MustCompile(`^(\d{1,2})_([A-Z]{2,})_(\d{4}-\d{2}-\d{2})_(N[1-2])\.(jpg|jpeg|pdf)$`)

// Rename records one rename performed by RenameNominations.
type Rename struct {
	From string
	To   string
}

// NominationName returns the normalized name for a nomination file, or
// false when name does not follow the scanner's naming.
func NominationName(name string) (string, bool) {
	m := nominationPattern.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	ep, nm, date, suffix, ext := m[1], m[2], m[3], m[4], m[5]
	return fmt.Sprintf("%s_%s_%s_%s.%s", date, nm, ep, suffix, ext), true
}

// RenameNominations renames every matching file in dir to
// "<date>_<NM>_<ep>_<suffix>.<ext>". Existing files are never overwritten;
// a numeric suffix is added instead.
//
// RETURNS:
//   - The renames performed.
//   - The names skipped because they do not match.
//   - An error if dir cannot be read or a rename fails.
func RenameNominations(dir string) ([]Rename, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var renames []Rename
	var skipped []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		target, ok := NominationName(e.Name())
		if !ok {
			skipped = append(skipped, e.Name())
			continue
		}

		dst := uniquePath(filepath.Join(dir, target))
		src := filepath.Join(dir, e.Name())
		if err := os.Rename(src, dst); err != nil {
			return renames, skipped, fmt.Errorf("failed to rename %s: %w", e.Name(), err)
		}
		renames = append(renames, Rename{From: src, To: dst})
	}
	return renames, skipped, nil
}

// uniquePath returns path, or path with "_1", "_2"... inserted before the
// extension if it exists.
func uniquePath(path string) string {
	if !FileExists(path) {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		if !FileExists(candidate) {
			return candidate
		}
	}
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName expands a file name format.
//
// PARAMETERS:
//   - format: The format string. Placeholders:
//     {uuid}      - A random UUID
//     {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//     {date}      - Current date (YYYYMMDD)
//     {original}  - Original file name (without extension), via params
//   - params: Extra placeholder values.
//   - ext: Extension added when the result does not already end with it.
//
// EXAMPLE:
//
//	format: "{original}_{timestamp}"
//	params: {"original": "CIIM Report Table 04.03.24"}
//	ext:    ".csv"
//	output: "CIIM Report Table 04.03.24_20240304_190000.csv"
func GenerateOutputFileName(format string, params map[string]string, ext string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if ext != "" && !strings.HasSuffix(strings.ToLower(result), strings.ToLower(ext)) {
		result += ext
	}
	return result
}

// NewRunID returns an identifier for one batch run.
func NewRunID() string {
	return uuid.NewString()
}

// =============================================================================
// RUN LOG
// =============================================================================

// RunLogEntry is one line of a run log.
type RunLogEntry struct {
	Timestamp time.Time
	Kind      string
	Path      string
	Message   string
	Rows      int
}

// RunSummary describes one batch run.
type RunSummary struct {
	RunID     string
	Operation string
	StartTime time.Time
	EndTime   time.Time
	Entries   []RunLogEntry
}

// Failures counts entries of kind "error".
func (s RunSummary) Failures() int {
	n := 0
	for _, e := range s.Entries {
		if e.Kind == "error" {
			n++
		}
	}
	return n
}

// WriteRunLog writes a run summary to "<operation>_<timestamp>_<runid>.txt"
// in dir.
//
// RETURNS:
//   - The path to the log file.
//   - An error if writing fails.
func WriteRunLog(summary RunSummary, dir string) (string, error) {
	if _, err := EnsureDirectories(dir); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s_%s_%s.txt",
		strings.ReplaceAll(summary.Operation, " ", "_"),
		summary.StartTime.Format("20060102_150405"),
		shortID(summary.RunID))
	logPath := filepath.Join(dir, name)

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create run log: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)

	fmt.Fprintf(w, "CIIM Report Sync - Run Log\n"+
		"================================================================================\n\n"+
		"  Run ID:     %s\n"+
		"  Operation:  %s\n"+
		"  Start Time: %s\n"+
		"  End Time:   %s\n"+
		"  Duration:   %s\n"+
		"  Failures:   %d\n\n",
		summary.RunID,
		summary.Operation,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String(),
		summary.Failures())

	for i, e := range summary.Entries {
		fmt.Fprintf(w, "#%d [%s] %s\n", i+1, strings.ToUpper(e.Kind), e.Timestamp.Format("15:04:05"))
		if e.Path != "" {
			fmt.Fprintf(w, "  Path:    %s\n", e.Path)
		}
		if e.Rows > 0 {
			fmt.Fprintf(w, "  Rows:    %d\n", e.Rows)
		}
		fmt.Fprintf(w, "  Message: %s\n\n", e.Message)
	}

	w.WriteString("================================================================================\n" +
		"End of Run Log\n")

	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush run log: %w", err)
	}
	return logPath, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// CopyFile copies src to dst, replacing dst if it exists.
func CopyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		destFile.Close()
		return err
	}
	if err := destFile.Sync(); err != nil {
		destFile.Close()
		return err
	}
	return destFile.Close()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

// StripExt returns the base name of path without its extension.
func StripExt(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
