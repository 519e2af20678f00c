package imaging_test

import (
	"errors"
	"path/filepath"
	"testing"

	"glyphcache/internal/imaging"
	"glyphcache/internal/logging"
	"glyphcache/internal/testsupport"
)

func newTestValidator() *imaging.Validator {
	return imaging.NewValidator(imaging.Limits{MaxFileBytes: 1 << 20, MaxDimension: 256}, logging.NewNop())
}

func TestValidateMissingFile(t *testing.T) {
	validator := newTestValidator()
	err := validator.Validate(filepath.Join(t.TempDir(), "absent.png"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if imaging.ReasonOf(err) != imaging.ReasonNotFound {
		t.Fatalf("expected not_found, got %s", imaging.ReasonOf(err))
	}
}

func TestValidateRejectsOversizedFile(t *testing.T) {
	validator := newTestValidator()
	path := filepath.Join(t.TempDir(), "big.png")
	testsupport.WriteFile(t, path, 2<<20)

	err := validator.Validate(path)
	if imaging.ReasonOf(err) != imaging.ReasonTooLarge {
		t.Fatalf("expected too_large, got %v", err)
	}
}

func TestValidateRejectsUnsupportedExtension(t *testing.T) {
	validator := newTestValidator()
	path := filepath.Join(t.TempDir(), "notes.txt")
	testsupport.WriteFile(t, path, 16)

	err := validator.Validate(path)
	if imaging.ReasonOf(err) != imaging.ReasonUnsupportedFormat {
		t.Fatalf("expected unsupported_format, got %v", err)
	}
}

func TestDecodeRejectsCorruptImage(t *testing.T) {
	validator := newTestValidator()
	path := filepath.Join(t.TempDir(), "corrupt.png")
	testsupport.WriteFile(t, path, 128)

	_, err := validator.Decode(path)
	if imaging.ReasonOf(err) != imaging.ReasonDecodeFailed {
		t.Fatalf("expected decode_failed, got %v", err)
	}

	var verr *imaging.ValidationError
	if !errors.As(err, &verr) || verr.Path != path {
		t.Fatalf("expected typed error carrying the path, got %v", err)
	}
}

func TestDecodeValidImage(t *testing.T) {
	validator := newTestValidator()
	path := filepath.Join(t.TempDir(), "item.png")
	testsupport.WritePNG(t, path, 120, 80)

	img, err := validator.Decode(path)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 120 || img.Bounds().Dy() != 80 {
		t.Fatalf("unexpected decoded size: %v", img.Bounds())
	}
}

func TestDecodeDownscalesOversizedDimensions(t *testing.T) {
	validator := newTestValidator()
	path := filepath.Join(t.TempDir(), "huge.png")
	testsupport.WritePNG(t, path, 512, 128)

	img, err := validator.Decode(path)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Longer side clamps to the 256 ceiling, aspect preserved.
	if img.Bounds().Dx() != 256 || img.Bounds().Dy() != 64 {
		t.Fatalf("expected 256x64 after admission downscale, got %v", img.Bounds())
	}
}

func TestReasonOfUnrelatedError(t *testing.T) {
	if got := imaging.ReasonOf(errors.New("plain")); got != imaging.ReasonNone {
		t.Fatalf("expected none, got %s", got)
	}
}
