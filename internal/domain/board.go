package domain

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// NoRow is returned by LowestOpenRow for a column that has no room left.
const NoRow = -1

// Move is a single disc drop. Row is the row the disc came to rest in.
type Move struct {
	Row    int  `json:"row"`
	Column int  `json:"column"`
	Side   Side `json:"side"`
}

type undoEntry struct {
	move   Move
	toMove Side
}

// Board is a gravity grid of discs. Row 0 is the top row and Height-1 the
// bottom one. A Board is owned by a single goroutine; the search engine
// relies on Drop/Undo being used as a strict stack.
type Board struct {
	rules   RuleSet
	order   []int
	cells   []Side // row-major
	heights []int  // discs per column
	discs   int
	toMove  Side
	history []undoEntry
}

// NewBoard returns an empty board with first to move. An invalid first
// side falls back to SideA.
func NewBoard(rules RuleSet, first Side) *Board {
	if !first.Valid() {
		first = SideA
	}
	return &Board{
		rules:   rules,
		order:   rules.ColumnOrder(),
		cells:   make([]Side, rules.Cells()),
		heights: make([]int, rules.Width),
		toMove:  first,
	}
}

// BoardFromGrid rebuilds a position from a snapshot. grid[0] is the top
// row. The snapshot must respect gravity and discs must match the number
// of occupied cells.
func BoardFromGrid(rules RuleSet, grid [][]Side, discs int, toMove Side) (*Board, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if len(grid) != rules.Height {
		return nil, fmt.Errorf("%w: expected %d rows, got %d", ErrInvalidBoard, rules.Height, len(grid))
	}
	if !toMove.Valid() {
		return nil, fmt.Errorf("%w: side to move must be A or B", ErrInvalidBoard)
	}

	b := NewBoard(rules, toMove)
	count := 0
	for row := range grid {
		if len(grid[row]) != rules.Width {
			return nil, fmt.Errorf("%w: row %d has %d cells, expected %d", ErrInvalidBoard, row, len(grid[row]), rules.Width)
		}
		for col, side := range grid[row] {
			if side != Empty && !side.Valid() {
				return nil, fmt.Errorf("%w: bad cell value %d at (%d,%d)", ErrInvalidBoard, side, row, col)
			}
			if side == Empty {
				continue
			}
			// gravity: everything below an occupied cell is occupied
			if row+1 < rules.Height && grid[row+1][col] == Empty {
				return nil, fmt.Errorf("%w: floating disc at (%d,%d)", ErrInvalidBoard, row, col)
			}
			b.cells[row*rules.Width+col] = side
			b.heights[col]++
			count++
		}
	}

	if discs != count {
		return nil, fmt.Errorf("%w: disc count %d does not match %d occupied cells", ErrInvalidBoard, discs, count)
	}
	b.discs = count
	return b, nil
}

// ParseBoard reads the diagram produced by String: one line per row, top
// row first, '.' for empty cells and 'A'/'B' (or 'X'/'O') for discs.
// Blank lines and spaces are ignored.
func ParseBoard(rules RuleSet, diagram string, toMove Side) (*Board, error) {
	var grid [][]Side
	discs := 0
	for _, line := range strings.Split(diagram, "\n") {
		line = strings.ReplaceAll(strings.TrimSpace(line), " ", "")
		if line == "" {
			continue
		}
		row := make([]Side, 0, len(line))
		for _, ch := range line {
			switch ch {
			case '.', '_':
				row = append(row, Empty)
			case 'A', 'a', 'X', 'x':
				row = append(row, SideA)
				discs++
			case 'B', 'b', 'O', 'o':
				row = append(row, SideB)
				discs++
			default:
				return nil, fmt.Errorf("%w: unexpected %q in diagram", ErrInvalidBoard, ch)
			}
		}
		grid = append(grid, row)
	}
	return BoardFromGrid(rules, grid, discs, toMove)
}

func (b *Board) Rules() RuleSet { return b.rules }

func (b *Board) Discs() int { return b.discs }

func (b *Board) SideToMove() Side { return b.toMove }

func (b *Board) inBounds(row, col int) bool {
	return row >= 0 && row < b.rules.Height && col >= 0 && col < b.rules.Width
}

// Cell returns the owner of (row, col), or Empty outside the board.
func (b *Board) Cell(row, col int) Side {
	if !b.inBounds(row, col) {
		return Empty
	}
	return b.cells[row*b.rules.Width+col]
}

// Grid returns a copy of the cells, top row first.
func (b *Board) Grid() [][]Side {
	grid := make([][]Side, b.rules.Height)
	for row := range grid {
		grid[row] = make([]Side, b.rules.Width)
		copy(grid[row], b.cells[row*b.rules.Width:(row+1)*b.rules.Width])
	}
	return grid
}

// Ints is Grid flattened to plain integers for JSON storage.
func (b *Board) Ints() [][]int {
	grid := make([][]int, b.rules.Height)
	for row := range grid {
		grid[row] = make([]int, b.rules.Width)
		for col := range grid[row] {
			grid[row][col] = int(b.cells[row*b.rules.Width+col])
		}
	}
	return grid
}

// Clone returns an independent copy. The undo history is not carried over.
func (b *Board) Clone() *Board {
	c := &Board{
		rules:   b.rules,
		order:   b.order,
		cells:   make([]Side, len(b.cells)),
		heights: make([]int, len(b.heights)),
		discs:   b.discs,
		toMove:  b.toMove,
	}
	copy(c.cells, b.cells)
	copy(c.heights, b.heights)
	return c
}

// IsColumnFull reports whether no disc fits in col. Columns outside the
// board are reported full.
func (b *Board) IsColumnFull(col int) bool {
	if col < 0 || col >= b.rules.Width {
		return true
	}
	return b.heights[col] >= b.rules.Height
}

// LowestOpenRow returns the row a disc dropped in col would land on, or
// NoRow when the column is full or out of range. Callers are expected to
// check IsColumnFull first.
func (b *Board) LowestOpenRow(col int) int {
	if b.IsColumnFull(col) {
		return NoRow
	}
	return b.rules.Height - 1 - b.heights[col]
}

// Drop plays a disc for the side to move.
func (b *Board) Drop(col int) (Move, error) {
	return b.DropFor(b.toMove, col)
}

// DropFor plays a disc for side in col and advances the turn according to
// the rule set.
func (b *Board) DropFor(side Side, col int) (Move, error) {
	if col < 0 || col >= b.rules.Width {
		return Move{}, fmt.Errorf("%w: %d", ErrInvalidColumn, col)
	}
	if !side.Valid() {
		return Move{}, fmt.Errorf("%w: cannot drop for side %d", ErrInvalidBoard, side)
	}
	row := b.LowestOpenRow(col)
	if row == NoRow {
		return Move{}, fmt.Errorf("%w: %d", ErrColumnFull, col)
	}

	m := Move{Row: row, Column: col, Side: side}
	b.history = append(b.history, undoEntry{move: m, toMove: b.toMove})
	b.cells[row*b.rules.Width+col] = side
	b.heights[col]++
	b.discs++
	b.toMove = b.rules.Turn(side, b.discs)
	return m, nil
}

// Undo takes back m, which must be the most recent drop on this board.
// Anything else is a programming error and panics.
func (b *Board) Undo(m Move) {
	n := len(b.history)
	if n == 0 || b.history[n-1].move != m {
		panic(fmt.Sprintf("domain: undo of %+v out of order", m))
	}
	entry := b.history[n-1]
	b.history = b.history[:n-1]
	b.cells[m.Row*b.rules.Width+m.Column] = Empty
	b.heights[m.Column]--
	b.discs--
	b.toMove = entry.toMove
}

// MakesFour reports whether m completes a run of WinLength discs through
// its own cell. Only the window of WinLength-1 cells on either side of m
// is inspected along each axis.
func (b *Board) MakesFour(m Move) bool {
	if b.Cell(m.Row, m.Column) != m.Side || !m.Side.Valid() {
		return false
	}
	reach := b.rules.WinLength - 1
	for _, dir := range directions {
		count := 0
		for i := -reach; i <= reach; i++ {
			if b.Cell(m.Row+i*dir[0], m.Column+i*dir[1]) == m.Side {
				count++
				if count >= b.rules.WinLength {
					return true
				}
			} else {
				count = 0
			}
		}
	}
	return false
}

// directions are the four axes as (deltaRow, deltaCol)
var directions = [4][2]int{
	{0, 1},  // horizontal
	{1, 0},  // vertical
	{1, 1},  // diagonal \
	{-1, 1}, // diagonal /
}

// IsFull reports whether every cell holds a disc.
func (b *Board) IsFull() bool {
	return b.discs >= b.rules.Cells()
}

// LegalColumns lists the playable columns in centre-out order.
func (b *Board) LegalColumns() []int {
	cols := make([]int, 0, len(b.order))
	for _, c := range b.order {
		if !b.IsColumnFull(c) {
			cols = append(cols, c)
		}
	}
	return cols
}

// HasWinner scans the whole board for a completed run and returns its
// owner. It is meant for validating snapshots, not for the search.
func (b *Board) HasWinner() (Side, bool) {
	for row := 0; row < b.rules.Height; row++ {
		for col := 0; col < b.rules.Width; col++ {
			side := b.Cell(row, col)
			if side == Empty {
				continue
			}
			if b.MakesFour(Move{Row: row, Column: col, Side: side}) {
				return side, true
			}
		}
	}
	return Empty, false
}

// Fingerprint identifies the position (rules, cells and side to move). It
// is stable across processes and is used as a cache key.
func (b *Board) Fingerprint() string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(b.rules.Name))
	var dims [12]byte
	binary.BigEndian.PutUint32(dims[0:], uint32(b.rules.Height))
	binary.BigEndian.PutUint32(dims[4:], uint32(b.rules.Width))
	binary.BigEndian.PutUint32(dims[8:], uint32(b.rules.WinLength))
	h.Write(dims[:])
	buf := make([]byte, 0, len(b.cells)+1)
	for _, s := range b.cells {
		buf = append(buf, byte(s))
	}
	buf = append(buf, byte(b.toMove))
	h.Write(buf)
	return hex.EncodeToString(h.Sum(nil))
}

func (b *Board) String() string {
	var sb strings.Builder
	for row := 0; row < b.rules.Height; row++ {
		for col := 0; col < b.rules.Width; col++ {
			sb.WriteString(b.Cell(row, col).String())
		}
		if row < b.rules.Height-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
