package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"glyphcache/internal/render"
)

// Metadata is the JSON blob embedded in every exported image. The staleness
// check reads it back to decide whether an output is still current.
type Metadata struct {
	Sequence          string         `json:"sequence"`
	ExportOptions     render.Options `json:"export_options"`
	ExportDate        string         `json:"export_date"`
	SourceMtimeUnixNs int64          `json:"source_mtime_unix_ns"`
	SourceSize        int64          `json:"source_size"`
}

// Validate reports whether the required fields are present.
func (m Metadata) Validate() error {
	if strings.TrimSpace(m.Sequence) == "" {
		return errors.New("metadata: sequence is empty")
	}
	if strings.TrimSpace(m.ExportDate) == "" {
		return errors.New("metadata: export_date is empty")
	}
	if m.SourceMtimeUnixNs == 0 || m.SourceSize == 0 {
		return errors.New("metadata: source fingerprint is missing")
	}
	return nil
}

// embedInto marshals the metadata and inserts it into an encoded PNG.
func (m Metadata) embedInto(pngData []byte) ([]byte, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return EmbedText(pngData, MetadataKeyword, string(payload))
}

// ReadMetadata extracts the embedded metadata from an exported image without
// decoding pixel data.
func ReadMetadata(path string) (Metadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("open exported image: %w", err)
	}
	defer file.Close()

	text, found, err := ExtractText(file, MetadataKeyword)
	if err != nil {
		return Metadata{}, err
	}
	if !found {
		return Metadata{}, errors.New("metadata: no embedded metadata chunk")
	}

	var meta Metadata
	if err := json.Unmarshal([]byte(text), &meta); err != nil {
		return Metadata{}, fmt.Errorf("parse metadata: %w", err)
	}
	return meta, nil
}
