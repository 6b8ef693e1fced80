// Package scan collects package files from command line paths.
package scan

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Extension is the package file extension matched when walking directories.
const Extension = ".pkg"

// Result lists what a scan found
type Result struct {
	// Packages holds files to check, in argument order. Files inside a
	// directory are in lexical order.
	Packages []string
	// Unknown holds arguments that are neither a file nor a directory.
	Unknown []string
	// Skipped holds directories that could not be read.
	Skipped []string
}

// Packages resolves paths into package files. Files are taken as they are,
// whatever their extension. Directories are walked recursively for files
// ending in .pkg, ignoring case.
func Packages(paths []string, logger *zap.SugaredLogger) *Result {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	res := &Result{}
	for _, arg := range paths {
		path := strings.Trim(arg, `"`)
		info, err := os.Stat(path)
		switch {
		case err != nil:
			logger.Warnw("unknown path", "path", path)
			res.Unknown = append(res.Unknown, path)
		case info.IsDir():
			res.walk(path, logger)
		default:
			res.Packages = append(res.Packages, path)
		}
	}
	return res
}

func (r *Result) walk(root string, logger *zap.SugaredLogger) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warnw("skipping unreadable path", "path", path, "error", err)
			r.Skipped = append(r.Skipped, path)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsPackage(d.Name()) {
			return nil
		}
		r.Packages = append(r.Packages, path)
		return nil
	})
}

// IsPackage reports whether name carries the package extension.
func IsPackage(name string) bool {
	return strings.EqualFold(filepath.Ext(name), Extension)
}

// ErrNoPackages is returned by Require when a scan found nothing to check.
var ErrNoPackages = errors.New("no packages were found, check paths and try again")

// Require returns ErrNoPackages when r holds no packages.
func (r *Result) Require() error {
	if len(r.Packages) == 0 {
		return ErrNoPackages
	}
	return nil
}
