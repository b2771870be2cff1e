// Package output writes node results as JSON lines.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bitrise-io/go-mediaupload/node"
	"github.com/bitrise-io/go-utils/fileutil"
	"github.com/bitrise-io/go-utils/v2/pathutil"
)

// WriteJSONLines writes every output as one JSON object per line.
func WriteJSONLines(w io.Writer, outputs []node.Output) error {
	encoder := json.NewEncoder(w)
	for _, output := range outputs {
		if err := encoder.Encode(output); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	return nil
}

// ExportFile writes the outputs as JSON lines to pth and returns its absolute path.
func ExportFile(pth string, outputs []node.Output) (string, error) {
	absPth, err := pathutil.NewPathModifier().AbsPath(pth)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := WriteJSONLines(&buf, outputs); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(absPth), 0755); err != nil {
		return "", err
	}
	if err := fileutil.WriteBytesToFile(absPth, buf.Bytes()); err != nil {
		return "", err
	}
	return absPth, nil
}
