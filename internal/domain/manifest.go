package domain

import (
	"fmt"
	"regexp"
)

var releasePattern = regexp.MustCompile(`Release-(\d+\.\d+)`)

// ChunkedFile is one output file of a manifest, assembled from ordered chunks
type ChunkedFile struct {
	File     string `json:"File"`
	FileSize int64  `json:"FileSize"`
	ChunkIDs []int  `json:"ChunksIds"`
}

// ManifestFile describes a versioned build as a list of chunked files
type ManifestFile struct {
	Name   string        `json:"Name"`
	Size   int64         `json:"Size"`
	Chunks []ChunkedFile `json:"Chunks"`
}

// ChunkCount returns the number of chunks across all files
func (m *ManifestFile) ChunkCount() int {
	n := 0
	for _, f := range m.Chunks {
		n += len(f.ChunkIDs)
	}
	return n
}

// ExtractVersion pulls the numeric "X.Y" component out of a release label
// such as "++Game+Release-12.41-CL-1234".
func ExtractVersion(label string) (string, error) {
	m := releasePattern.FindStringSubmatch(label)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidVersionFormat, label)
	}
	return m[1], nil
}
