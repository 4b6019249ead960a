package infrastructure

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"unicode/utf16"

	"github.com/yourusername/build-fetch-go/internal/domain"
)

// DefaultVersionMarker prefixes the build label embedded in shipped binaries
const DefaultVersionMarker = "+Release-"

// maxVersionTail bounds how far past the marker a label may extend, in bytes
const maxVersionTail = 64

// ScanVersionStrings reads the file at path and returns every UTF-16LE string
// that starts with marker and is NUL-terminated within maxVersionTail bytes.
func ScanVersionStrings(path, marker string) ([]string, error) {
	if marker == "" {
		return nil, fmt.Errorf("%w: marker is required", domain.ErrInvalidRequest)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", domain.ErrFilesystem, path, err)
	}
	return scanUTF16(data, encodeUTF16LE(marker)), nil
}

func scanUTF16(data, pattern []byte) []string {
	var found []string
	offset := 0
	for {
		i := bytes.Index(data[offset:], pattern)
		if i < 0 {
			return found
		}
		start := offset + i
		tailStart := start + len(pattern)
		tailEnd := tailStart + maxVersionTail
		if tailEnd > len(data) {
			tailEnd = len(data)
		}

		if end := findUTF16Nul(data[tailStart:tailEnd]); end >= 0 {
			found = append(found, decodeUTF16LE(data[start:tailStart+end]))
		}
		offset = start + 2
		if offset >= len(data) {
			return found
		}
	}
}

// findUTF16Nul returns the offset of the first aligned UTF-16 NUL in b, or -1
func findUTF16Nul(b []byte) int {
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] == 0 && b[i+1] == 0 {
			return i
		}
	}
	return -1
}

func encodeUTF16LE(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(out[i*2:], u)
	}
	return out
}

func decodeUTF16LE(b []byte) string {
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return string(utf16.Decode(units))
}
