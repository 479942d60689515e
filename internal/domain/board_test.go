package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, diagram string, toMove Side) *Board {
	t.Helper()
	b, err := ParseBoard(Standard, diagram, toMove)
	require.NoError(t, err)
	return b
}

func TestColumnOrderIsCenterOut(t *testing.T) {
	assert.Equal(t, []int{3, 4, 2, 5, 1, 6, 0}, Standard.ColumnOrder())
	assert.Equal(t, 3, Standard.Center())

	narrow := Standard
	narrow.Width = 4
	assert.Equal(t, []int{1, 2, 0, 3}, narrow.ColumnOrder())
}

func TestNewBoardIsEmpty(t *testing.T) {
	b := NewBoard(Standard, SideA)

	assert.Equal(t, 0, b.Discs())
	assert.Equal(t, SideA, b.SideToMove())
	assert.False(t, b.IsFull())
	assert.Equal(t, []int{3, 4, 2, 5, 1, 6, 0}, b.LegalColumns())
	for c := 0; c < Standard.Width; c++ {
		assert.False(t, b.IsColumnFull(c))
		assert.Equal(t, Standard.Height-1, b.LowestOpenRow(c))
	}
}

func TestDropStacksAndAlternates(t *testing.T) {
	b := NewBoard(Standard, SideA)

	m1, err := b.Drop(2)
	require.NoError(t, err)
	assert.Equal(t, Move{Row: 5, Column: 2, Side: SideA}, m1)
	assert.Equal(t, SideB, b.SideToMove())

	m2, err := b.Drop(2)
	require.NoError(t, err)
	assert.Equal(t, Move{Row: 4, Column: 2, Side: SideB}, m2)
	assert.Equal(t, SideA, b.SideToMove())
	assert.Equal(t, 2, b.Discs())
	assert.Equal(t, SideA, b.Cell(5, 2))
	assert.Equal(t, SideB, b.Cell(4, 2))
}

func TestDropErrors(t *testing.T) {
	b := NewBoard(Standard, SideA)

	_, err := b.Drop(-1)
	assert.ErrorIs(t, err, ErrInvalidColumn)
	_, err = b.Drop(Standard.Width)
	assert.ErrorIs(t, err, ErrInvalidColumn)

	for i := 0; i < Standard.Height; i++ {
		_, err := b.Drop(0)
		require.NoError(t, err)
	}
	assert.True(t, b.IsColumnFull(0))
	assert.Equal(t, NoRow, b.LowestOpenRow(0))
	assert.NotContains(t, b.LegalColumns(), 0)

	_, err = b.Drop(0)
	assert.ErrorIs(t, err, ErrColumnFull)
	assert.Equal(t, Standard.Height, b.Discs())
}

func TestUndoRestoresBoard(t *testing.T) {
	b := mustParse(t, `
		.......
		.......
		.......
		...B...
		..AA...
		.BAB...
	`, SideA)
	before := b.Grid()
	discs := b.Discs()

	for _, col := range b.LegalColumns() {
		m, err := b.Drop(col)
		require.NoError(t, err)
		assert.Equal(t, discs+1, b.Discs())
		assert.Equal(t, SideB, b.SideToMove())

		b.Undo(m)
		assert.Equal(t, before, b.Grid())
		assert.Equal(t, discs, b.Discs())
		assert.Equal(t, SideA, b.SideToMove())
	}
}

func TestUndoOutOfOrderPanics(t *testing.T) {
	b := NewBoard(Standard, SideA)
	first, err := b.Drop(3)
	require.NoError(t, err)
	_, err = b.Drop(4)
	require.NoError(t, err)

	assert.Panics(t, func() { b.Undo(first) })
	assert.Panics(t, func() { NewBoard(Standard, SideA).Undo(first) })
}

func TestMakesFourAllDirections(t *testing.T) {
	tests := []struct {
		name    string
		diagram string
		column  int
	}{
		{
			name: "horizontal",
			diagram: `
				.......
				.......
				.......
				.......
				BBB....
				AAA....`,
			column: 3,
		},
		{
			name: "horizontal gap filled",
			diagram: `
				.......
				.......
				.......
				.......
				BB.B...
				AA.AA..`,
			column: 2,
		},
		{
			name: "vertical",
			diagram: `
				.......
				.......
				A......
				A......
				A.....B
				BBA...B`,
			column: 0,
		},
		{
			name: "diagonal rising",
			diagram: `
				.......
				.......
				.......
				..AB...
				.ABA...
				ABBB...`,
			column: 3,
		},
		{
			name: "diagonal falling",
			diagram: `
				.......
				.......
				.......
				...BA..
				...ABA.
				...BBBA`,
			column: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := mustParse(t, tt.diagram, SideA)
			_, won := b.HasWinner()
			require.False(t, won, "fixture must not be won already")

			m, err := b.Drop(tt.column)
			require.NoError(t, err)
			assert.True(t, b.MakesFour(m))

			b.Undo(m)
			for _, col := range b.LegalColumns() {
				if col == tt.column {
					continue
				}
				m, err := b.Drop(col)
				require.NoError(t, err)
				assert.False(t, b.MakesFour(m), "column %d should not win", col)
				b.Undo(m)
			}
		})
	}
}

func TestMakesFourIgnoresOpponentAndThrees(t *testing.T) {
	b := mustParse(t, `
		.......
		.......
		.......
		.......
		.......
		AABA...
	`, SideB)

	m, err := b.DropFor(SideA, 4)
	require.NoError(t, err)
	assert.False(t, b.MakesFour(m))

	// a move that is not on the board never wins
	assert.False(t, b.MakesFour(Move{Row: 0, Column: 0, Side: SideA}))
}

func TestBoardFromGridValidates(t *testing.T) {
	empty := func() [][]Side {
		g := make([][]Side, Standard.Height)
		for i := range g {
			g[i] = make([]Side, Standard.Width)
		}
		return g
	}

	floating := empty()
	floating[3][2] = SideA
	_, err := BoardFromGrid(Standard, floating, 1, SideB)
	assert.ErrorIs(t, err, ErrInvalidBoard)

	counted := empty()
	counted[5][2] = SideA
	_, err = BoardFromGrid(Standard, counted, 2, SideB)
	assert.ErrorIs(t, err, ErrInvalidBoard)

	_, err = BoardFromGrid(Standard, counted, 1, Empty)
	assert.ErrorIs(t, err, ErrInvalidBoard)

	_, err = BoardFromGrid(Standard, empty()[:5], 0, SideA)
	assert.ErrorIs(t, err, ErrInvalidBoard)

	b, err := BoardFromGrid(Standard, counted, 1, SideB)
	require.NoError(t, err)
	assert.Equal(t, 4, b.LowestOpenRow(2))
	assert.Equal(t, SideB, b.SideToMove())
}

func TestIsFullAndDraw(t *testing.T) {
	b := mustParse(t, `
		BABABAB
		BABABAB
		ABABABA
		ABABABA
		BABABAB
		BABABAB
	`, SideA)

	assert.True(t, b.IsFull())
	assert.Empty(t, b.LegalColumns())
	_, won := b.HasWinner()
	assert.False(t, won)
}

func TestFourByTwoTurnPolicy(t *testing.T) {
	b := NewBoard(FourByTwoRules, SideA)
	want := []Side{SideA, SideB, SideB, SideA, SideA, SideB, SideB}
	for i, side := range want {
		assert.Equal(t, side, b.SideToMove(), "drop %d", i)
		_, err := b.Drop(i % Standard.Width)
		require.NoError(t, err)
	}

	// undo walks the policy back
	m, err := b.Drop(3)
	require.NoError(t, err)
	b.Undo(m)
	assert.Equal(t, SideA, b.SideToMove())
}

func TestCloneIsIndependent(t *testing.T) {
	b := NewBoard(Standard, SideA)
	_, err := b.Drop(3)
	require.NoError(t, err)

	c := b.Clone()
	_, err = c.Drop(3)
	require.NoError(t, err)

	assert.Equal(t, 1, b.Discs())
	assert.Equal(t, 2, c.Discs())
	assert.Equal(t, Empty, b.Cell(4, 3))
}

func TestFingerprintAndString(t *testing.T) {
	diagram := ".......\n.......\n.......\n.......\n...B...\n..AA..."
	a := mustParse(t, diagram, SideB)
	b := mustParse(t, diagram, SideB)
	c := mustParse(t, diagram, SideA)

	assert.Equal(t, diagram, a.String())
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
	assert.Len(t, a.Fingerprint(), 64)
}

func TestRulesByName(t *testing.T) {
	r, err := RulesByName("")
	require.NoError(t, err)
	assert.Equal(t, RulesStandard, r.Name)

	r, err = RulesByName(RulesFourByTwo)
	require.NoError(t, err)
	assert.Equal(t, RulesFourByTwo, r.Name)

	_, err = RulesByName("warfare")
	assert.ErrorIs(t, err, ErrInvalidRules)
}
