package core

// View is everything one render needs: the controls and the filtered rows,
// derived from the full table and the current selection.
type View struct {
	Controls  []Control
	Selection Selection // Clamped selection actually applied
	Filtered  Table
	Total     int
}

// Render is the pure step run on every selection change.
func Render(t Table, kinds Kinds, sel Selection) View {
	sel = sel.Clamp(Bounds(t, kinds))
	return View{
		Controls:  BuildPanel(t, kinds, sel),
		Selection: sel,
		Filtered:  Filter(t, sel),
		Total:     t.Len(),
	}
}
