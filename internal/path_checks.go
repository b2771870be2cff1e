package internal

import (
	"errors"
	"fmt"
	"os"
)

// PathChecker runs a chain of checks on a path.
type PathChecker struct {
	osProxy OsProxy
	checks  []func(path string, info os.FileInfo) error
}

// NewPathChecker ...
func NewPathChecker(osProxy OsProxy) *PathChecker {
	return &PathChecker{osProxy: osProxy}
}

// IsDir adds a check that the path is a directory.
func (c *PathChecker) IsDir() *PathChecker {
	c.checks = append(c.checks, func(path string, info os.FileInfo) error {
		if !info.IsDir() {
			return fmt.Errorf("expected directory but not a directory: %s", path)
		}
		return nil
	})
	return c
}

// IsFile adds a check that the path is not a directory.
func (c *PathChecker) IsFile() *PathChecker {
	c.checks = append(c.checks, func(path string, info os.FileInfo) error {
		if info.IsDir() {
			return fmt.Errorf("expected file but is a directory: %s", path)
		}
		return nil
	})
	return c
}

// MaxSize adds a check that the file is at most limit bytes long.
func (c *PathChecker) MaxSize(limit int64) *PathChecker {
	c.checks = append(c.checks, func(path string, info os.FileInfo) error {
		if info.Size() > limit {
			return fmt.Errorf("file %s is %d bytes, larger than %d bytes", path, info.Size(), limit)
		}
		return nil
	})
	return c
}

// Check returns every failed check, or a single error when the path cannot
// be stat-ed.
func (c *PathChecker) Check(path string) error {
	info, err := c.osProxy.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("path does not exist: %s", path)
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}

	var errs []error
	for _, check := range c.checks {
		if err := check(path, info); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
