package game

import "testing"

func mustGenerate(t *testing.T, difficulty string, seed uint32) *Board {
	t.Helper()
	board, err := Generate(difficulty, seed)
	if err != nil {
		t.Fatalf("Generate(%q, %d) failed: %v", difficulty, seed, err)
	}
	return board
}

func TestGenerateUnknownDifficulty(t *testing.T) {
	if _, err := Generate("impossible", 1); err != ErrUnknownDifficulty {
		t.Errorf("expected ErrUnknownDifficulty, got %v", err)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	for _, difficulty := range []string{"easy", "medium"} {
		for _, seed := range []uint32{0, 1, 42, 123456789} {
			a := mustGenerate(t, difficulty, seed)
			b := mustGenerate(t, difficulty, seed)
			for r := 0; r < a.Rows; r++ {
				for c := 0; c < a.Cols; c++ {
					if a.Cells[r][c] != b.Cells[r][c] {
						t.Fatalf("%s/seed %d: cell (%d,%d) differs between runs", difficulty, seed, r, c)
					}
				}
			}
		}
	}
}

func TestGenerateMineCount(t *testing.T) {
	for name, config := range Difficulties {
		board := mustGenerate(t, name, 7)
		mines := 0
		for r := 0; r < board.Rows; r++ {
			for c := 0; c < board.Cols; c++ {
				if board.Cells[r][c].Mine {
					mines++
				}
			}
		}
		if mines != config.Mines {
			t.Errorf("%s: placed %d mines, want %d", name, mines, config.Mines)
		}
	}
}

func TestGenerateAdjacencyCounts(t *testing.T) {
	board := mustGenerate(t, "medium", 99)
	for r := 0; r < board.Rows; r++ {
		for c := 0; c < board.Cols; c++ {
			if board.Cells[r][c].Mine {
				continue
			}
			want := 0
			for dr := -1; dr <= 1; dr++ {
				for dc := -1; dc <= 1; dc++ {
					nr, nc := r+dr, c+dc
					if board.inBounds(nr, nc) && board.Cells[nr][nc].Mine {
						want++
					}
				}
			}
			if got := board.Cells[r][c].AdjacentMines; got != want {
				t.Errorf("cell (%d,%d): adjacency %d, want %d", r, c, got, want)
			}
		}
	}
}

func TestRevealNoOpOnRevealedOrFlagged(t *testing.T) {
	board := mustGenerate(t, "easy", 3)

	// Find a non-mine cell, reveal it, then reveal again.
	r, c := findCell(board, func(cell Cell) bool { return !cell.Mine })
	board.Reveal(r, c)
	before := board.RevealedCount()
	result := board.Reveal(r, c)
	if result.HitMine || len(result.Cells) != 0 {
		t.Errorf("revealing a revealed cell: got %+v, want empty result", result)
	}
	if board.RevealedCount() != before {
		t.Error("revealing a revealed cell mutated the board")
	}

	// Flagged cells cannot be revealed directly.
	fr, fc := findCell(board, func(cell Cell) bool { return !cell.Revealed })
	board.ToggleFlag(fr, fc)
	result = board.Reveal(fr, fc)
	if result.HitMine || len(result.Cells) != 0 {
		t.Errorf("revealing a flagged cell: got %+v, want empty result", result)
	}
	if !board.Cells[fr][fc].Flagged || board.Cells[fr][fc].Revealed {
		t.Error("flagged cell changed state on direct reveal")
	}
}

func TestRevealMine(t *testing.T) {
	board := mustGenerate(t, "easy", 11)
	r, c := findCell(board, func(cell Cell) bool { return cell.Mine })
	result := board.Reveal(r, c)
	if !result.HitMine {
		t.Fatal("revealing a mine did not report HitMine")
	}
	if len(result.Cells) != 1 || result.Cells[0].Row != r || result.Cells[0].Col != c {
		t.Errorf("mine reveal cells = %+v, want the single exploded cell", result.Cells)
	}
	if !board.Cells[r][c].Revealed {
		t.Error("exploded mine not marked revealed")
	}
}

func TestFloodFillFromZeroCell(t *testing.T) {
	// Seeded 9x9 board; find a zero-adjacency cell and flood from it.
	board := mustGenerate(t, "easy", 42)
	r, c := findCell(board, func(cell Cell) bool {
		return !cell.Mine && cell.AdjacentMines == 0
	})

	result := board.Reveal(r, c)
	if result.HitMine {
		t.Fatal("flood fill reported a mine hit")
	}
	if len(result.Cells) <= 1 {
		t.Fatalf("flood fill from zero cell revealed %d cells, want > 1", len(result.Cells))
	}
	for _, cell := range result.Cells {
		if board.Cells[cell.Row][cell.Col].Mine {
			t.Fatalf("flood fill revealed mine at (%d,%d)", cell.Row, cell.Col)
		}
	}

	// Every revealed zero cell must have all its in-bounds neighbours revealed.
	for _, cell := range result.Cells {
		if cell.AdjacentMines != 0 {
			continue
		}
		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				nr, nc := cell.Row+dr, cell.Col+dc
				if board.inBounds(nr, nc) && !board.Cells[nr][nc].Revealed {
					t.Errorf("neighbour (%d,%d) of zero cell (%d,%d) left unrevealed", nr, nc, cell.Row, cell.Col)
				}
			}
		}
	}
}

func TestFloodFillClearsFlags(t *testing.T) {
	board := mustGenerate(t, "easy", 42)
	zr, zc := findCell(board, func(cell Cell) bool {
		return !cell.Mine && cell.AdjacentMines == 0
	})

	// Flag a non-mine neighbour of the zero cell, then flood through it.
	flagged := false
	for dr := -1; dr <= 1 && !flagged; dr++ {
		for dc := -1; dc <= 1 && !flagged; dc++ {
			nr, nc := zr+dr, zc+dc
			if (dr != 0 || dc != 0) && board.inBounds(nr, nc) && !board.Cells[nr][nc].Mine {
				board.ToggleFlag(nr, nc)
				flagged = true
			}
		}
	}
	if !flagged {
		t.Skip("no flaggable neighbour for this seed")
	}

	board.Reveal(zr, zc)
	for r := 0; r < board.Rows; r++ {
		for c := 0; c < board.Cols; c++ {
			if board.Cells[r][c].Revealed && board.Cells[r][c].Flagged {
				t.Errorf("cell (%d,%d) is both revealed and flagged", r, c)
			}
		}
	}
}

func TestToggleFlag(t *testing.T) {
	board := mustGenerate(t, "easy", 5)
	r, c := findCell(board, func(cell Cell) bool { return !cell.Revealed })

	changed, flagged := board.ToggleFlag(r, c)
	if !changed || !flagged {
		t.Errorf("first toggle = (%v, %v), want (true, true)", changed, flagged)
	}
	changed, flagged = board.ToggleFlag(r, c)
	if !changed || flagged {
		t.Errorf("second toggle = (%v, %v), want (true, false)", changed, flagged)
	}

	board.Reveal(r, c)
	if board.Cells[r][c].Revealed {
		changed, _ = board.ToggleFlag(r, c)
		if changed {
			t.Error("flag toggled on a revealed cell")
		}
	}
}

func TestCheckWin(t *testing.T) {
	board := mustGenerate(t, "easy", 21)
	if board.CheckWin() {
		t.Fatal("fresh board reports win")
	}
	for r := 0; r < board.Rows; r++ {
		for c := 0; c < board.Cols; c++ {
			if !board.Cells[r][c].Mine {
				board.Cells[r][c].Revealed = true
			}
		}
	}
	if !board.CheckWin() {
		t.Fatal("board with all non-mine cells revealed does not report win")
	}
	if got, want := board.RevealedCount(), board.TotalCells()-board.Mines; got != want {
		t.Errorf("revealed count %d, want %d", got, want)
	}
}

func TestClientViewHidesMines(t *testing.T) {
	board := mustGenerate(t, "easy", 33)
	r, c := findCell(board, func(cell Cell) bool { return !cell.Mine })
	board.Reveal(r, c)
	mr, mc := findCell(board, func(cell Cell) bool { return cell.Mine && !cell.Revealed })
	board.ToggleFlag(mr, mc)

	view := board.ClientView(false)
	for vr := range view {
		for vc := range view[vr] {
			cell := view[vr][vc]
			if !cell.Revealed && cell.Mine {
				t.Fatalf("live view leaks mine at (%d,%d)", vr, vc)
			}
			if !cell.Revealed && cell.AdjacentMines != 0 {
				t.Fatalf("live view leaks adjacency at (%d,%d)", vr, vc)
			}
		}
	}
	if !view[mr][mc].Flagged {
		t.Error("live view dropped the flag bit")
	}

	full := board.ClientView(true)
	if !full[mr][mc].Mine {
		t.Error("game-over view hides a mine")
	}
}

func TestEnsureSafeFirstClick(t *testing.T) {
	board := mustGenerate(t, "easy", 11)
	r, c := findCell(board, func(cell Cell) bool { return cell.Mine })

	board.EnsureSafeFirstClick(r, c)
	if board.Cells[r][c].Mine {
		t.Fatal("first-click cell is still a mine")
	}

	mines := 0
	for br := 0; br < board.Rows; br++ {
		for bc := 0; bc < board.Cols; bc++ {
			if board.Cells[br][bc].Mine {
				mines++
			}
		}
	}
	if mines != board.Mines {
		t.Errorf("mine count after relocation = %d, want %d", mines, board.Mines)
	}

	// Adjacency must be consistent with the relocated layout.
	for br := 0; br < board.Rows; br++ {
		for bc := 0; bc < board.Cols; bc++ {
			if board.Cells[br][bc].Mine {
				continue
			}
			want := 0
			for dr := -1; dr <= 1; dr++ {
				for dc := -1; dc <= 1; dc++ {
					nr, nc := br+dr, bc+dc
					if board.inBounds(nr, nc) && board.Cells[nr][nc].Mine {
						want++
					}
				}
			}
			if board.Cells[br][bc].AdjacentMines != want {
				t.Errorf("stale adjacency at (%d,%d) after relocation", br, bc)
			}
		}
	}

	// Revealing the clicked cell must now be safe.
	if result := board.Reveal(r, c); result.HitMine {
		t.Error("first click still explodes after relocation")
	}
}

func findCell(board *Board, match func(Cell) bool) (int, int) {
	for r := 0; r < board.Rows; r++ {
		for c := 0; c < board.Cols; c++ {
			if match(board.Cells[r][c]) {
				return r, c
			}
		}
	}
	panic("no matching cell on board")
}
