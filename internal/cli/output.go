package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/schollz/progressbar/v3"

	"github.com/alnah/go-mediakit/internal/logging"
)

// checkInput fails with ErrFileNotFound when path does not exist.
func checkInput(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("cannot access input file: %w", err)
	}
	return nil
}

// createOutput opens path for writing. Unless overwrite is set it fails if
// the file already exists (O_EXCL), preventing accidental overwrites.
func createOutput(path string, overwrite bool) (*os.File, error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if !overwrite {
		flags = os.O_CREATE | os.O_EXCL | os.O_WRONLY
	}
	// #nosec G302 G304 -- user-specified output file with standard permissions
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrOutputExists, path)
		}
		return nil, fmt.Errorf("cannot create output file: %w", err)
	}
	return f, nil
}

// writeOutput streams wt into a new file at path. On write failure, the
// partial file is removed.
func writeOutput(path string, overwrite bool, wt io.WriterTo) error {
	f, err := createOutput(path, overwrite)
	if err != nil {
		return err
	}

	writeErr := func() error {
		defer func() { _ = f.Close() }()
		if _, err := wt.WriteTo(f); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}()

	if writeErr != nil {
		_ = os.Remove(path)
		return writeErr
	}
	return nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderTable writes a table to w. Columns listed in right (1-based) are
// right-aligned.
func renderTable(w io.Writer, header table.Row, rows []table.Row, right ...int) {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(header)
	tw.AppendRows(rows)

	configs := make([]table.ColumnConfig, 0, len(header))
	for i := range header {
		align := text.AlignLeft
		if slices.Contains(right, i+1) {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	_, _ = fmt.Fprintln(w, tw.Render())
}

// newProgressBar returns a bar counting to total on w. The bar is hidden
// when w is not a terminal.
func newProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	opts := []progressbar.Option{
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
	}
	if logging.IsTerminal(w) {
		opts = append(opts, progressbar.OptionOnCompletion(func() { _, _ = fmt.Fprintln(w) }))
	} else {
		opts = append(opts, progressbar.OptionSetVisibility(false))
	}
	return progressbar.NewOptions(total, opts...)
}
