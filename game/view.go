package game

// CellView is the wire representation of one cell.
type CellView struct {
	Revealed      bool `json:"revealed"`
	Mine          bool `json:"mine"`
	AdjacentMines int  `json:"adjacentMines"`
	Flagged       bool `json:"flagged"`
}

// ClientView projects the board for a client. While the game is live
// (revealAll=false) unrevealed cells hide their mine identity entirely,
// keeping only the flag bit; on game over the full layout plus flags is
// exposed so the client can render the post-mortem.
func (b *Board) ClientView(revealAll bool) [][]CellView {
	view := make([][]CellView, b.Rows)
	for r := 0; r < b.Rows; r++ {
		view[r] = make([]CellView, b.Cols)
		for c := 0; c < b.Cols; c++ {
			cell := b.Cells[r][c]
			switch {
			case cell.Revealed:
				view[r][c] = CellView{
					Revealed:      true,
					Mine:          cell.Mine,
					AdjacentMines: cell.AdjacentMines,
				}
			case revealAll:
				view[r][c] = CellView{
					Mine:          cell.Mine,
					AdjacentMines: cell.AdjacentMines,
					Flagged:       cell.Flagged,
				}
			default:
				view[r][c] = CellView{Flagged: cell.Flagged}
			}
		}
	}
	return view
}
