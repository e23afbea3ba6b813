// Package format renders a finished ResultSet into the caller's
// required shape. Formatters never re-sort: the set is printed in the
// order the engine ranked it.
package format

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/kk-code-lab/ffind/internal/search"
	"github.com/kk-code-lab/ffind/internal/textutil"
)

// Options controls list rendering.
type Options struct {
	// Color decorates directory entries. The caller decides this from
	// its TTY detection and config; the formatter just obeys.
	Color bool
}

// WriteList prints one root-relative path per line, directories with a
// trailing separator. An empty set prints nothing.
func WriteList(w io.Writer, rs search.ResultSet, opts Options) error {
	dirColor := color.New(color.FgBlue, color.Bold)
	if opts.Color {
		dirColor.EnableColor()
	} else {
		dirColor.DisableColor()
	}

	for _, m := range rs.Matches {
		line := textutil.SanitizePath(m.Entry.RelPath)
		if m.Entry.IsDir {
			if _, err := dirColor.Fprintln(w, line+"/"); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

type jsonResult struct {
	Path string `json:"path"`
	Dir  bool   `json:"dir"`
}

// WriteJSON prints the result set as a top-level array of
// {path, dir} objects, pretty-printed unless compact is set. An empty
// set is the empty array, not an error.
func WriteJSON(w io.Writer, rs search.ResultSet, compact bool) error {
	results := make([]jsonResult, 0, len(rs.Matches))
	for _, m := range rs.Matches {
		results = append(results, jsonResult{
			Path: m.Entry.RelPath,
			Dir:  m.Entry.IsDir,
		})
	}

	enc := json.NewEncoder(w)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(results)
}

// WriteFirst prints only the best match's path with no decoration,
// for the limit-1 "first match wins" invocation. Nothing is printed
// for an empty set.
func WriteFirst(w io.Writer, rs search.ResultSet) error {
	if rs.Empty() {
		return nil
	}
	_, err := fmt.Fprintln(w, textutil.SanitizePath(rs.Matches[0].Entry.RelPath))
	return err
}
