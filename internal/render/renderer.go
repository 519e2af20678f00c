package render

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"glyphcache/internal/catalog"
	"glyphcache/internal/imaging"
	"glyphcache/internal/logging"
)

// Options are the visibility toggles that affect rendered bytes. They do not
// participate in cache-key shape; an export run uses one fixed option set, so
// outputs produced under different options are distinguished by the embedded
// metadata instead.
type Options struct {
	AddWordLabel       bool   `json:"add_word_label"`
	AddAuthor          bool   `json:"add_author"`
	AddDate            bool   `json:"add_date"`
	AddBeatNumbers     bool   `json:"add_beat_numbers"`
	AddReversalSymbols bool   `json:"add_reversal_symbols"`
	AddDifficultyLevel bool   `json:"add_difficulty_level"`
	Author             string `json:"author,omitempty"`
}

// Renderer produces a raw bitmap for a catalog item.
type Renderer interface {
	Render(ctx context.Context, desc catalog.SourceDescriptor, opts Options) (image.Image, error)
}

// RenderError wraps a renderer failure so the batch loop can count it as a
// per-item failure distinct from validation or disk trouble.
type RenderError struct {
	Word string
	Path string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s (%s): %v", e.Word, e.Path, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// FileRenderer decodes the descriptor's source file as the render product.
type FileRenderer struct {
	validator *imaging.Validator
	logger    *slog.Logger
}

// NewFileRenderer builds a renderer backed by the validator's guarded decode.
func NewFileRenderer(validator *imaging.Validator, logger *slog.Logger) *FileRenderer {
	return &FileRenderer{
		validator: validator,
		logger:    logging.NewComponentLogger(logger, "renderer"),
	}
}

// Render decodes the source image. Context is checked up front so a cancelled
// run does not pay for another decode.
func (r *FileRenderer) Render(ctx context.Context, desc catalog.SourceDescriptor, _ Options) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := r.validator.Decode(desc.Path)
	if err != nil {
		return nil, &RenderError{Word: desc.Word, Path: desc.Path, Err: err}
	}
	return img, nil
}
