package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// DebugNodeRow is one node of a dumped search tree. Nodes are flat and linked
// by Parent; the root has Parent -1 and no move.
type DebugNodeRow struct {
	SearchID string `parquet:"search_id,dict" json:"search_id"`
	Node     int32  `parquet:"node" json:"node"`
	Parent   int32  `parquet:"parent" json:"parent"`
	Depth    int32  `parquet:"depth" json:"depth"`

	// Mover is the side whose move produced this node.
	Mover string `parquet:"mover,dict" json:"mover"`
	Row   int32  `parquet:"row" json:"row"`
	Col   int32  `parquet:"col" json:"col"`

	Visits   int32   `parquet:"visits" json:"visits"`
	Wins     float32 `parquet:"wins" json:"wins"`
	UCT      float32 `parquet:"uct" json:"uct"`
	Terminal bool    `parquet:"terminal" json:"terminal"`
	Winner   string  `parquet:"winner,dict" json:"winner"`
	Board    string  `parquet:"board" json:"board"`
}

// WriteDebugTreeParquet writes one dumped tree to outDir.
func WriteDebugTreeParquet(outDir, searchID string, rows []DebugNodeRow) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	name := fmt.Sprintf("debug_%s_%d.parquet", searchID, time.Now().UnixNano())
	finalPath := filepath.Join(outDir, name)
	tmpPath := finalPath + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", "debug_tree_v1"),
	); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename parquet: %w", err)
	}
	return finalPath, nil
}

func ReadDebugTree(path string) ([]DebugNodeRow, error) {
	rows, err := parquet.ReadFile[DebugNodeRow](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	return rows, nil
}
