package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bitrise-io/go-mediaupload/internal"
	"github.com/bitrise-io/go-mediaupload/media"
	"github.com/bitrise-io/go-mediaupload/node"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/bmatcuk/doublestar/v4"
)

const binaryProperty = "data"

type fileSource struct {
	osProxy      internal.OsProxy
	pathModifier pathutil.PathModifier
	logger       log.Logger
}

func newFileSource(logger log.Logger) fileSource {
	return fileSource{
		osProxy:      internal.RealOS{},
		pathModifier: pathutil.NewPathModifier(),
		logger:       logger,
	}
}

// expand resolves the given paths and glob patterns into absolute file paths.
func (s fileSource) expand(paths []string) ([]string, error) {
	var expandedPaths []string
	for _, path := range paths {
		if !strings.Contains(path, "*") {
			expandedPaths = append(expandedPaths, path)
			continue
		}

		base, pattern := doublestar.SplitPattern(path)
		absBase, err := s.pathModifier.AbsPath(base)
		if err != nil {
			return nil, err
		}
		matches, err := doublestar.Glob(s.osProxy.DirFS(absBase), pattern, doublestar.WithNoFollow())
		if err != nil {
			return nil, fmt.Errorf("invalid path pattern %s: %w", path, err)
		}
		if len(matches) == 0 {
			s.logger.Warnf("No match for path pattern: %s", path)
			continue
		}

		for _, match := range matches {
			expandedPaths = append(expandedPaths, filepath.Join(absBase, match))
		}
	}

	checker := internal.NewPathChecker(s.osProxy).IsFile()
	var errs []error
	var finalPaths []string
	for _, path := range expandedPaths {
		absPath, err := s.pathModifier.AbsPath(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := checker.Check(absPath); err != nil {
			errs = append(errs, err)
			continue
		}
		finalPaths = append(finalPaths, absPath)
	}

	return finalPaths, errors.Join(errs...)
}

// items reads every file into an item carrying its content as inline binary.
func (s fileSource) items(paths []string) ([]node.Item, error) {
	var items []node.Item
	for _, path := range paths {
		data, err := s.osProxy.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		items = append(items, node.Item{Binary: map[string]*media.BinaryRef{
			binaryProperty: {FileName: filepath.Base(path), Data: data},
		}})
	}
	return items, nil
}
