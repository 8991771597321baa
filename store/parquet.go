package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

const moveRowSchema = "selfplay_move_v1"

// MoveRow is one ply of a self-play game.
//
// Board is the position before the move, rows joined by '/', using the grid
// symbols '.', 'w', 'b'. Value is the final outcome from the mover's
// perspective: 1 win, -1 loss, 0 draw.
type MoveRow struct {
	GameID     string  `parquet:"game_id,dict"`
	Ply        int32   `parquet:"ply"`
	Side       string  `parquet:"side,dict"`
	Row        int32   `parquet:"row"`
	Col        int32   `parquet:"col"`
	Board      string  `parquet:"board"`
	Iterations int32   `parquet:"iterations"`
	RootRate   float32 `parquet:"root_rate"`
	Fallback   bool    `parquet:"fallback"`
	Value      float32 `parquet:"value"`
	Winner     string  `parquet:"winner,dict"`
	Source     string  `parquet:"source,dict"`

	// SearchJSON stores the root children of the search that chose this
	// move: JSON array of {row, col, n, w}.
	SearchJSON []byte `parquet:"search_json,optional,zstd"`
}

// SearchChild is the JSON element stored in MoveRow.SearchJSON.
type SearchChild struct {
	Row    int     `json:"row"`
	Col    int     `json:"col"`
	Visits int     `json:"n"`
	Wins   float64 `json:"w"`
}

func EncodeSearchJSON(children []SearchChild) ([]byte, error) {
	if len(children) == 0 {
		return nil, nil
	}
	return json.Marshal(children)
}

func DecodeSearchJSON(b []byte) ([]SearchChild, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var out []SearchChild
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode search json: %w", err)
	}
	return out, nil
}

func writerOptions() []parquet.WriterOption {
	return []parquet.WriterOption{
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.SkipPageBounds("board"),
		parquet.KeyValueMetadata("schema", moveRowSchema),
	}
}

// WriteBatchParquetAtomic writes a Parquet file into outDir/tmp and then
// moves it into outDir, so readers never observe partial files.
func WriteBatchParquetAtomic(outDir string, rows []MoveRow) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	tmpDir := filepath.Join(outDir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("create tmp dir: %w", err)
	}

	name := fmt.Sprintf("batch_%d.parquet", time.Now().UnixNano())
	finalPath := filepath.Join(outDir, name)
	tmpPath := filepath.Join(tmpDir, name+".tmp")
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows, writerOptions()...); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename parquet: %w", err)
	}
	return finalPath, nil
}

// ReadMoveRows loads every row of a batch file.
func ReadMoveRows(path string) ([]MoveRow, error) {
	rows, err := parquet.ReadFile[MoveRow](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	return rows, nil
}
