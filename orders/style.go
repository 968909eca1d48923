package orders

import "github.com/ssungjun83/Order-Dashboard/frame"

// StyleKind is the variant of a StyleTag.
type StyleKind int

const (
	StyleNormal StyleKind = iota
	StyleTotalRow
	StyleStatusHighlight
)

// StyleTag is the rendering hint for one row. Status, Background and Foreground are only
// set for StyleStatusHighlight.
type StyleTag struct {
	Kind       StyleKind
	Status     string
	Background string
	Foreground string
}

const (
	StatusShipped      = "출고완료"
	StatusPacked       = "포장완료"
	StatusPacking      = "포장진행중"
	StatusProduced     = "생산완료"
	StatusProducing    = "생산진행중"
	StatusNotStarted   = "미진행"
	defaultStatusColor = "#e6f1fb"
)

var statusColors = map[string]string{
	StatusShipped:    "#1e5db0",
	StatusPacked:     "#2f79c8",
	StatusPacking:    "#5aa0dc",
	StatusProduced:   "#8dbce6",
	StatusProducing:  "#ffffff",
	StatusNotStarted: "#dcebfa",
}

// StatusColors returns the background and text colour used for a status cell.
func StatusColors(status string) (string, string) {
	bg, ok := statusColors[status]
	if !ok {
		bg = defaultStatusColor
	}
	fg := "#0f172a"
	if status == StatusShipped {
		fg = "#ffffff"
	}
	return bg, fg
}

// RowStyle classifies a row for the rendering layer: total rows first, then rows that
// carry a status value, otherwise normal.
func RowStyle(row frame.Row) StyleTag {
	if row.Get(ColType).String() == TotalLabel {
		return StyleTag{Kind: StyleTotalRow}
	}
	status := row.Get(ColStatus)
	if status.IsNull() {
		return StyleTag{Kind: StyleNormal}
	}
	bg, fg := StatusColors(status.String())
	return StyleTag{Kind: StyleStatusHighlight, Status: status.String(), Background: bg, Foreground: fg}
}
