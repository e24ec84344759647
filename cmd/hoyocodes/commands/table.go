package commands

import (
	"hoyocodes-backend/internal/codes"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func renderEntries(entries []codes.Entry) {
	t := newTable()
	t.AppendHeader(table.Row{"ID", "Game", "Code", "Status", "Rewards", "Updated"})
	for _, e := range entries {
		t.AppendRow(table.Row{
			e.ID,
			e.Game,
			e.Code,
			e.Status,
			e.Rewards,
			e.UpdatedAt.Local().Format(time.DateTime),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "Total", len(entries)})
	t.Render()
}
