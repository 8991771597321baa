package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func gameRows(id string, plies int, winner string) []MoveRow {
	rows := make([]MoveRow, 0, plies)
	for i := 0; i < plies; i++ {
		side := "white"
		if i%2 == 1 {
			side = "black"
		}
		var value float32
		switch winner {
		case "draw":
		case side:
			value = 1
		default:
			value = -1
		}
		rows = append(rows, MoveRow{
			GameID:     id,
			Ply:        int32(i),
			Side:       side,
			Row:        int32(i / 11),
			Col:        int32(i % 11),
			Board:      "...........",
			Iterations: 10 * int32(i+1),
			RootRate:   0.5,
			Value:      value,
			Winner:     winner,
			Source:     "test",
		})
	}
	return rows
}

func TestWriteBatchParquetAtomic_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	rows := gameRows("g1", 4, "white")
	children := []SearchChild{{Row: 5, Col: 5, Visits: 7, Wins: 3.5}}
	b, err := EncodeSearchJSON(children)
	require.NoError(t, err)
	rows[0].SearchJSON = b

	path, err := WriteBatchParquetAtomic(dir, rows)
	require.NoError(t, err)
	require.Equal(t, dir, filepath.Dir(path))

	tmpEntries, err := os.ReadDir(filepath.Join(dir, "tmp"))
	require.NoError(t, err)
	require.Empty(t, tmpEntries)

	got, err := ReadMoveRows(path)
	require.NoError(t, err)
	require.Len(t, got, 4)
	require.Equal(t, rows[3].Side, got[3].Side)
	require.Equal(t, rows[3].Iterations, got[3].Iterations)
	require.Equal(t, float32(-1), got[1].Value)

	decoded, err := DecodeSearchJSON(got[0].SearchJSON)
	require.NoError(t, err)
	require.Equal(t, children, decoded)

	none, err := DecodeSearchJSON(got[1].SearchJSON)
	require.NoError(t, err)
	require.Nil(t, none)
}

func TestBatchWriter_Finalize(t *testing.T) {
	dir := t.TempDir()
	bw, err := NewBatchWriter(dir)
	require.NoError(t, err)

	require.NoError(t, bw.WriteGame(gameRows("a", 3, "black")))
	require.NoError(t, bw.WriteGame(nil))
	require.NoError(t, bw.WriteGame(gameRows("b", 2, "draw")))
	require.Equal(t, 2, bw.BufferedGames())
	require.Equal(t, 5, bw.BufferedRows())

	path, rows, games, err := bw.Finalize()
	require.NoError(t, err)
	require.Equal(t, bw.OutPath(), path)
	require.Equal(t, 5, rows)
	require.Equal(t, 2, games)

	got, err := ReadMoveRows(path)
	require.NoError(t, err)
	require.Len(t, got, 5)

	require.Error(t, bw.WriteGame(gameRows("c", 1, "white")))

	again, _, _, err := bw.Finalize()
	require.NoError(t, err)
	require.Empty(t, again)
}

func TestBatchWriter_EmptyRemovesTmp(t *testing.T) {
	dir := t.TempDir()
	bw, err := NewBatchWriter(dir)
	require.NoError(t, err)

	path, rows, games, err := bw.Finalize()
	require.NoError(t, err)
	require.Empty(t, path)
	require.Zero(t, rows)
	require.Zero(t, games)

	entries, err := os.ReadDir(filepath.Join(dir, "tmp"))
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestSummarize(t *testing.T) {
	dir := t.TempDir()

	s, err := Summarize(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, Summary{}, s)

	var first []MoveRow
	first = append(first, gameRows("g1", 9, "white")...)
	first = append(first, gameRows("g2", 10, "black")...)
	_, err = WriteBatchParquetAtomic(dir, first)
	require.NoError(t, err)

	bw, err := NewBatchWriter(dir)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		require.NoError(t, bw.WriteGame(gameRows(fmt.Sprintf("d%d", i), 4, "draw")))
	}
	_, _, _, err = bw.Finalize()
	require.NoError(t, err)

	s, err = Summarize(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 2, s.Files)
	require.Equal(t, int64(4), s.Games)
	require.Equal(t, int64(27), s.Plies)
	require.Equal(t, int64(1), s.WhiteWins)
	require.Equal(t, int64(1), s.BlackWins)
	require.Equal(t, int64(2), s.Draws)
	require.Greater(t, s.AvgIterations, 0.0)
}

func TestWrittenLog_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "written.log")
	l, err := OpenWrittenLog(path)
	require.NoError(t, err)
	require.Zero(t, l.Count())

	require.NoError(t, l.AddMany([]string{"a", "", "b", "a"}))
	require.True(t, l.Has("a"))
	require.False(t, l.Has("c"))
	require.Equal(t, 2, l.Count())
	require.NoError(t, l.AddMany(nil))
	require.NoError(t, l.Close())
	require.Error(t, l.AddMany([]string{"c"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "a\nb\n", string(raw))

	l, err = OpenWrittenLog(path)
	require.NoError(t, err)
	defer l.Close()
	require.Equal(t, 2, l.Count())
	require.True(t, l.Has("b"))

	_, err = OpenWrittenLog("")
	require.Error(t, err)
}

func TestWrittenLog_DuplicatesInOneCall(t *testing.T) {
	path := filepath.Join(t.TempDir(), "written.log")
	l, err := OpenWrittenLog(path)
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.AddMany([]string{"x", "x", "y", "x"}))
	require.NoError(t, l.AddMany([]string{"y", "z", "z"}))
	require.Equal(t, 3, l.Count())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "x\ny\nz\n", string(raw))
}

func TestWriteDebugTreeParquet(t *testing.T) {
	dir := t.TempDir()
	rows := []DebugNodeRow{
		{SearchID: "s", Node: 0, Parent: -1, Row: -1, Col: -1, Visits: 3, Mover: "black"},
		{SearchID: "s", Node: 1, Parent: 0, Depth: 1, Row: 5, Col: 5, Visits: 2, Wins: 1.5, Mover: "white", UCT: 1.2},
	}
	path, err := WriteDebugTreeParquet(dir, "s", rows)
	require.NoError(t, err)
	require.FileExists(t, path)
	require.NoFileExists(t, path+".tmp")

	got, err := ReadDebugTree(path)
	require.NoError(t, err)
	require.Equal(t, rows, got)
}

func TestCatalog_GamesAndMoves(t *testing.T) {
	dir := t.TempDir()
	c, err := OpenCatalog(dir)
	require.NoError(t, err)
	defer c.Close()

	games, err := c.Games(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Empty(t, games)
	_, err = c.Moves(context.Background(), "g1")
	require.ErrorIs(t, err, ErrGameNotFound)

	rows := append(gameRows("g2", 3, "black"), gameRows("g1", 5, "white")...)
	_, err = WriteBatchParquetAtomic(dir, rows)
	require.NoError(t, err)

	games, err = c.Games(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, games, 2)
	require.Equal(t, "g1", games[0].GameID)
	require.Equal(t, int64(5), games[0].Plies)
	require.Equal(t, "white", games[0].Winner)

	games, err = c.Games(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Len(t, games, 1)
	require.Equal(t, "g2", games[0].GameID)

	moves, err := c.Moves(context.Background(), "g2")
	require.NoError(t, err)
	require.Len(t, moves, 3)
	for i, m := range moves {
		require.Equal(t, int32(i), m.Ply)
		require.Equal(t, "g2", m.GameID)
	}
	require.Equal(t, float32(1), moves[1].Value)

	_, err = c.Moves(context.Background(), "nope")
	require.ErrorIs(t, err, ErrGameNotFound)
}
