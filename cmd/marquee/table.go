package main

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"marquee/internal/tmdb"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// titleWidthMax wraps long titles so tables stay readable in a terminal.
const titleWidthMax = 48

type column struct {
	header   string
	align    columnAlignment
	widthMax int
}

func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	for i, col := range columns {
		header[i] = col.header
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(columns))
	for i, col := range columns {
		align := text.AlignLeft
		if col.align == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
			WidthMax:    col.widthMax,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

var movieColumns = []column{
	{header: "ID", align: alignRight},
	{header: "Title", widthMax: titleWidthMax},
	{header: "Year"},
	{header: "Rating", align: alignRight},
	{header: "Votes", align: alignRight},
}

func renderMovieTable(movies []tmdb.Movie) string {
	rows := make([][]string, 0, len(movies))
	for _, m := range movies {
		rows = append(rows, movieRow(m))
	}
	return renderTable(movieColumns, rows)
}

func movieRow(m tmdb.Movie) []string {
	year := m.Year()
	if year == "" {
		year = "-"
	}
	return []string{
		strconv.FormatInt(m.ID, 10),
		m.DisplayTitle(),
		year,
		fmt.Sprintf("%.1f", m.VoteAverage),
		strconv.FormatInt(m.VoteCount, 10),
	}
}
