package internal

import (
	"bytes"
	"chat-relay/contract"
	"net/http"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// NewDebugHandler renders the live rooms as a plain text table.
func NewDebugHandler(stats func() []contract.RoomStats) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		RenderRooms(&buf, stats())
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	})
}

func RenderRooms(buf *bytes.Buffer, rooms []contract.RoomStats) {
	table := tablewriter.NewWriter(buf)
	table.SetHeader([]string{"Room", "Members", "Messages", "Online"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, room := range rooms {
		table.Append([]string{
			room.Room.String(),
			strconv.Itoa(room.Members),
			strconv.Itoa(room.Messages),
			strings.Join(room.Online, ", "),
		})
	}
	table.Render()
}
