package export_test

import (
	"path/filepath"
	"testing"

	"glyphcache/internal/export"
)

func TestMetadataValidate(t *testing.T) {
	valid := export.Metadata{
		Sequence:          "AB",
		ExportDate:        "2026-01-02T03:04:05Z",
		SourceMtimeUnixNs: 1,
		SourceSize:        1,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid metadata: %v", err)
	}

	cases := []struct {
		name string
		meta export.Metadata
	}{
		{"empty sequence", export.Metadata{ExportDate: "x", SourceMtimeUnixNs: 1, SourceSize: 1}},
		{"empty date", export.Metadata{Sequence: "AB", SourceMtimeUnixNs: 1, SourceSize: 1}},
		{"missing fingerprint", export.Metadata{Sequence: "AB", ExportDate: "x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.meta.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestReadMetadataMissingFile(t *testing.T) {
	if _, err := export.ReadMetadata(filepath.Join(t.TempDir(), "absent.png")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
