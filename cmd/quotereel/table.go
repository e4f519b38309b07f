package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"quotereel/internal/api"
	"quotereel/internal/job"
)

type column struct {
	title string
	align text.Align
}

var (
	jobColumns = []column{
		{title: "ID"},
		{title: "Status"},
		{title: "Progress", align: text.AlignRight},
		{title: "Scenes", align: text.AlignRight},
		{title: "Output"},
		{title: "Updated"},
	}
	videoColumns = []column{
		{title: "File"},
		{title: "Size", align: text.AlignRight},
		{title: "Created"},
	}
	detailColumns = []column{{title: "Field"}, {title: "Value"}}
	checkColumns  = []column{{title: "Check"}, {title: "OK"}, {title: "Detail"}}
)

func jobRow(record job.Job) []string {
	return []string{
		record.ID,
		string(record.Status),
		fmt.Sprintf("%d%%", record.Progress),
		fmt.Sprintf("%d", record.SceneCount),
		record.OutputName,
		formatAge(record.UpdatedAt),
	}
}

func videoRow(video api.Video) []string {
	return []string{video.Filename, formatBytes(video.Size), formatTime(video.Created)}
}

// renderTable draws rows under columns. Short rows are padded with blanks.
func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, c := range columns {
		header[i] = c.title
		configs[i] = table.ColumnConfig{Number: i + 1, Align: c.align, AlignHeader: text.AlignLeft}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range r {
			r[i] = ""
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}
