package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ssungjun83/Order-Dashboard/frame"
)

func TestRowStyle(t *testing.T) {
	f := frame.New(ColType, ColStatus)
	f.Append(frame.Text(TotalLabel), frame.Text(StatusShipped))
	f.Append(frame.Text("수출"), frame.Text(StatusShipped))
	f.Append(frame.Text("내수"), frame.Text("보류"))
	f.Append(frame.Text("내수"), frame.Null())

	assert.Equal(t, StyleTag{Kind: StyleTotalRow}, RowStyle(f.Row(0)))
	assert.Equal(t, StyleTag{Kind: StyleStatusHighlight, Status: StatusShipped, Background: "#1e5db0", Foreground: "#ffffff"}, RowStyle(f.Row(1)))

	unknown := RowStyle(f.Row(2))
	assert.Equal(t, StyleStatusHighlight, unknown.Kind)
	assert.Equal(t, "#e6f1fb", unknown.Background)
	assert.Equal(t, "#0f172a", unknown.Foreground)

	assert.Equal(t, StyleNormal, RowStyle(f.Row(3)).Kind)
}

func TestMoveNoteBeforeYear(t *testing.T) {
	f := frame.New(ColMonth, ColYear, ColProduct, ColNote)
	got := MoveNoteBeforeYear(f).Columns()
	assert.Equal(t, []string{ColMonth, ColNote, ColYear, ColProduct}, got)
}
