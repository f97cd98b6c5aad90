// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/OCAP2/cutscene/internal/geo"
	"github.com/OCAP2/cutscene/pkg/core"
)

// Export is the root JSON structure of an export file
type Export struct {
	ExportedAt time.Time             `json:"exportedAt"`
	Cutscenes  []CutsceneJSON        `json:"cutscenes"`
	Playbacks  []core.PlaybackRecord `json:"playbacks"`
}

// CutsceneJSON is a stored definition with its derived path summary
type CutsceneJSON struct {
	core.Definition
	Source      string  `json:"source,omitempty"`
	MarkerCount int     `json:"markerCount"`
	PathLength  float64 `json:"pathLength"`
}

// ReadExport decodes an export file, gzipped or plain by extension.
func ReadExport(path string) (Export, error) {
	var export Export

	f, err := os.Open(path)
	if err != nil {
		return export, err
	}
	defer f.Close()

	var dec *json.Decoder
	if filepath.Ext(path) == ".gz" {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return export, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gz.Close()
		dec = json.NewDecoder(gz)
	} else {
		dec = json.NewDecoder(f)
	}

	if err := dec.Decode(&export); err != nil {
		return export, fmt.Errorf("failed to decode export: %w", err)
	}
	return export, nil
}

// exportJSON writes the stored data to a JSON file. Callers hold b.mu.
func (b *Backend) exportJSON() error {
	now := b.now()
	export := b.buildExport(now)

	filename := fmt.Sprintf("cutscenes_%s.json", now.Format("20060102_150405"))
	if b.cfg.CompressOutput {
		filename += ".gz"
	}
	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var err error
	if b.cfg.CompressOutput {
		err = writeGzipJSON(outputPath, export)
	} else {
		err = writeJSON(outputPath, export)
	}
	if err != nil {
		return err
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport(now time.Time) Export {
	export := Export{
		ExportedAt: now.UTC(),
		Cutscenes:  make([]CutsceneJSON, 0, len(b.cutscenes)),
		Playbacks:  make([]core.PlaybackRecord, len(b.playbacks)),
	}
	copy(export.Playbacks, b.playbacks)

	for _, r := range b.cutscenes {
		c := CutsceneJSON{
			Definition:  r.Definition,
			Source:      r.Source,
			MarkerCount: r.Definition.MarkerCount(),
		}
		if g, err := geo.Describe(r.Definition.PathPoints()); err == nil {
			c.PathLength = g.Length
		}
		export.Cutscenes = append(export.Cutscenes, c)
	}
	sort.Slice(export.Cutscenes, func(i, j int) bool {
		return export.Cutscenes[i].Name < export.Cutscenes[j].Name
	})
	return export
}

func writeJSON(path string, data Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(data)
}

func writeGzipJSON(path string, data Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	if err := json.NewEncoder(gzWriter).Encode(data); err != nil {
		_ = gzWriter.Close()
		return err
	}
	return gzWriter.Close()
}
