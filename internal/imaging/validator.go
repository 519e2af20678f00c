package imaging

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"glyphcache/internal/logging"
)

// Reason classifies why a source file was rejected.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonNotFound
	ReasonTooLarge
	ReasonUnsupportedFormat
	ReasonDecodeFailed
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonNotFound:
		return "not_found"
	case ReasonTooLarge:
		return "too_large"
	case ReasonUnsupportedFormat:
		return "unsupported_format"
	case ReasonDecodeFailed:
		return "decode_failed"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// ValidationError is the typed failure returned by Validate and Decode.
type ValidationError struct {
	Path   string
	Reason Reason
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("validate %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("validate %s: %s", e.Path, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ReasonOf extracts the typed reason from an error chain, or ReasonNone.
func ReasonOf(err error) Reason {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Reason
	}
	return ReasonNone
}

var allowedExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".bmp":  {},
	".webp": {},
}

// Limits bounds what the validator admits. Passed in explicitly so tests can
// override without shared globals.
type Limits struct {
	// MaxFileBytes rejects files above this size before any decode.
	MaxFileBytes int64
	// MaxDimension is the ceiling on the longer side of a decoded image;
	// larger decodes are downscaled on admission.
	MaxDimension int
}

// Validator performs admission checks for source files.
type Validator struct {
	limits Limits
	logger *slog.Logger
}

// NewValidator builds a validator with the provided limits.
func NewValidator(limits Limits, logger *slog.Logger) *Validator {
	return &Validator{
		limits: limits,
		logger: logging.NewComponentLogger(logger, "validator"),
	}
}

// Validate runs the pre-decode checks: existence, size ceiling, extension
// allow-list. It never panics on a missing file.
func (v *Validator) Validate(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &ValidationError{Path: path, Reason: ReasonNotFound, Err: err}
		}
		return &ValidationError{Path: path, Reason: ReasonNotFound, Err: err}
	}
	if info.IsDir() {
		return &ValidationError{Path: path, Reason: ReasonUnsupportedFormat, Err: errors.New("path is a directory")}
	}
	if v.limits.MaxFileBytes > 0 && info.Size() > v.limits.MaxFileBytes {
		return &ValidationError{
			Path:   path,
			Reason: ReasonTooLarge,
			Err:    fmt.Errorf("file is %d bytes, limit %d", info.Size(), v.limits.MaxFileBytes),
		}
	}
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := allowedExtensions[ext]; !ok {
		return &ValidationError{
			Path:   path,
			Reason: ReasonUnsupportedFormat,
			Err:    fmt.Errorf("extension %q not in allow-list", ext),
		}
	}
	return nil
}

// Decode validates path and decodes it. Decodes whose longer side exceeds the
// dimension ceiling are downscaled with a high-quality filter, preserving
// aspect ratio, before being returned.
func (v *Validator) Decode(path string) (image.Image, error) {
	if err := v.Validate(path); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, &ValidationError{Path: path, Reason: ReasonNotFound, Err: err}
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, &ValidationError{Path: path, Reason: ReasonDecodeFailed, Err: err}
	}

	bounds := img.Bounds()
	if v.limits.MaxDimension > 0 {
		longer := max(bounds.Dx(), bounds.Dy())
		if longer > v.limits.MaxDimension {
			img = v.shrinkToCeiling(img)
			v.logger.Debug("downscaled oversized source on admission",
				logging.String(logging.FieldSourcePath, path),
				logging.String("format", format),
				logging.Int("original_longer_side", longer),
				logging.Int("ceiling", v.limits.MaxDimension))
		}
	}
	return img, nil
}

func (v *Validator) shrinkToCeiling(img image.Image) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	ceiling := v.limits.MaxDimension

	var targetW, targetH int
	if width >= height {
		targetW = ceiling
		targetH = height * ceiling / width
	} else {
		targetH = ceiling
		targetW = width * ceiling / height
	}
	if targetW < 1 {
		targetW = 1
	}
	if targetH < 1 {
		targetH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)
	return dst
}
