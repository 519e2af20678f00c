package export

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

// MetadataKeyword is the iTXt keyword carrying the export metadata JSON.
const MetadataKeyword = "glyphcache:meta"

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

const maxTextChunkBytes = 1 << 20

// EmbedText inserts an iTXt chunk with the given keyword and UTF-8 text into
// an encoded PNG, immediately before IEND. An existing chunk with the same
// keyword is replaced.
func EmbedText(pngData []byte, keyword, text string) ([]byte, error) {
	if !bytes.HasPrefix(pngData, pngSignature) {
		return nil, errors.New("embed text: not a PNG stream")
	}

	out := make([]byte, 0, len(pngData)+len(keyword)+len(text)+32)
	out = append(out, pngSignature...)

	offset := len(pngSignature)
	inserted := false
	for offset < len(pngData) {
		if offset+8 > len(pngData) {
			return nil, errors.New("embed text: truncated chunk header")
		}
		length := binary.BigEndian.Uint32(pngData[offset:])
		chunkType := string(pngData[offset+4 : offset+8])
		end := offset + 12 + int(length)
		if end > len(pngData) {
			return nil, errors.New("embed text: truncated chunk body")
		}

		switch chunkType {
		case "iTXt":
			if existing, ok := parseTextChunk(pngData[offset+8 : offset+8+int(length)]); ok && existing == keyword {
				offset = end
				continue
			}
		case "IEND":
			out = append(out, buildITXtChunk(keyword, text)...)
			inserted = true
		}

		out = append(out, pngData[offset:end]...)
		offset = end
	}
	if !inserted {
		return nil, errors.New("embed text: IEND chunk not found")
	}
	return out, nil
}

// ExtractText scans a PNG stream for an iTXt or tEXt chunk with the given
// keyword and returns its text. The scan reads chunk headers only, never
// decoding pixel data.
func ExtractText(r io.Reader, keyword string) (string, bool, error) {
	header := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(r, header); err != nil {
		return "", false, fmt.Errorf("extract text: read signature: %w", err)
	}
	if !bytes.Equal(header, pngSignature) {
		return "", false, errors.New("extract text: not a PNG stream")
	}

	chunkHeader := make([]byte, 8)
	for {
		if _, err := io.ReadFull(r, chunkHeader); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return "", false, nil
			}
			return "", false, fmt.Errorf("extract text: read chunk header: %w", err)
		}
		length := binary.BigEndian.Uint32(chunkHeader)
		chunkType := string(chunkHeader[4:8])

		switch chunkType {
		case "iTXt", "tEXt":
			if length > maxTextChunkBytes {
				return "", false, fmt.Errorf("extract text: %s chunk too large (%d bytes)", chunkType, length)
			}
			data := make([]byte, length)
			if _, err := io.ReadFull(r, data); err != nil {
				return "", false, fmt.Errorf("extract text: read %s chunk: %w", chunkType, err)
			}
			if _, err := io.CopyN(io.Discard, r, 4); err != nil {
				return "", false, fmt.Errorf("extract text: skip crc: %w", err)
			}
			if key, ok := parseTextChunk(data); ok && key == keyword {
				text, err := textChunkPayload(chunkType, data)
				if err != nil {
					return "", false, err
				}
				return text, true, nil
			}
		case "IEND":
			return "", false, nil
		default:
			if _, err := io.CopyN(io.Discard, r, int64(length)+4); err != nil {
				return "", false, fmt.Errorf("extract text: skip %s chunk: %w", chunkType, err)
			}
		}
	}
}

func buildITXtChunk(keyword, text string) []byte {
	// iTXt layout: keyword NUL compressionFlag compressionMethod
	// languageTag NUL translatedKeyword NUL text.
	var data bytes.Buffer
	data.WriteString(keyword)
	data.WriteByte(0)
	data.WriteByte(0) // uncompressed
	data.WriteByte(0) // compression method
	data.WriteByte(0) // empty language tag
	data.WriteByte(0) // empty translated keyword
	data.WriteString(text)

	chunk := make([]byte, 0, data.Len()+12)
	chunk = binary.BigEndian.AppendUint32(chunk, uint32(data.Len()))
	chunk = append(chunk, 'i', 'T', 'X', 't')
	chunk = append(chunk, data.Bytes()...)

	crc := crc32.NewIEEE()
	crc.Write(chunk[4:])
	chunk = binary.BigEndian.AppendUint32(chunk, crc.Sum32())
	return chunk
}

func parseTextChunk(data []byte) (string, bool) {
	idx := bytes.IndexByte(data, 0)
	if idx < 0 {
		return "", false
	}
	return string(data[:idx]), true
}

func textChunkPayload(chunkType string, data []byte) (string, error) {
	switch chunkType {
	case "tEXt":
		idx := bytes.IndexByte(data, 0)
		if idx < 0 {
			return "", errors.New("extract text: malformed tEXt chunk")
		}
		return string(data[idx+1:]), nil
	case "iTXt":
		idx := bytes.IndexByte(data, 0)
		if idx < 0 || len(data) < idx+3 {
			return "", errors.New("extract text: malformed iTXt chunk")
		}
		if data[idx+1] != 0 {
			return "", errors.New("extract text: compressed iTXt chunk not supported")
		}
		rest := data[idx+3:]
		langEnd := bytes.IndexByte(rest, 0)
		if langEnd < 0 {
			return "", errors.New("extract text: malformed iTXt language tag")
		}
		rest = rest[langEnd+1:]
		translatedEnd := bytes.IndexByte(rest, 0)
		if translatedEnd < 0 {
			return "", errors.New("extract text: malformed iTXt translated keyword")
		}
		return string(rest[translatedEnd+1:]), nil
	default:
		return "", fmt.Errorf("extract text: unsupported chunk type %s", chunkType)
	}
}
