package cmd

import (
	"fmt"
	"io"
	"os"

	"audio-trimmer/domain/batch"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// renderJobTable lists every job with its state and sizes
func renderJobTable(jobs []batch.Snapshot) string {
	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		result := "-"
		switch j.Status {
		case batch.StatusDone:
			result = humanize.IBytes(uint64(len(j.Output)))
		case batch.StatusError:
			result = j.Error
		}
		rows = append(rows, []string{
			j.Name,
			j.Status.String(),
			humanize.IBytes(uint64(j.Size)),
			result,
		})
	}
	return renderTable(
		[]string{"File", "Status", "Input", "Output"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	)
}

// isTerminal reports whether w is an interactive terminal
func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// progressReporter prints per-file progress either as a bar or as plain lines
type progressReporter struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

func newProgressReporter(out io.Writer, total int, useBar bool) *progressReporter {
	p := &progressReporter{out: out}
	if useBar && total > 0 {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription("Trimming"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionClearOnFinish(),
		)
	}
	return p
}

// Update is a trim.ProgressFunc
func (p *progressReporter) Update(done, total int, job batch.Snapshot) {
	if p.bar != nil {
		_ = p.bar.Set(done)
		return
	}
	switch job.Status {
	case batch.StatusError:
		fmt.Fprintf(p.out, "  [%d/%d] %s: failed: %s\n", done, total, job.Name, job.Error)
	default:
		fmt.Fprintf(p.out, "  [%d/%d] %s: %s\n", done, total, job.Name, job.Status)
	}
}

func (p *progressReporter) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
