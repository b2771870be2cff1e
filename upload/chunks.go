package upload

import (
	"bytes"
	"fmt"
	"io"
)

// ChunkProvider supplies the chunks of a payload in order.
type ChunkProvider interface {
	// NumChunks returns the total number of chunks.
	NumChunks() int
	// ChunkSize returns the size of the chunk at the given index.
	ChunkSize(index int) int64
	// Offset returns the position of the first byte of the chunk.
	Offset(index int) int64
	// GetChunk returns a reader for the chunk at the given index.
	GetChunk(index int) (io.Reader, error)
}

// ByteSliceChunkProvider splits an in-memory payload. Every chunk is
// chunkSize bytes except the last, which holds the remainder.
type ByteSliceChunkProvider struct {
	data      []byte
	chunkSize int64
}

// NewByteSliceChunkProvider ...
func NewByteSliceChunkProvider(data []byte, chunkSize int64) *ByteSliceChunkProvider {
	return &ByteSliceChunkProvider{
		data:      data,
		chunkSize: chunkSize,
	}
}

// NumChunks is ceil(len(data) / chunkSize).
func (p *ByteSliceChunkProvider) NumChunks() int {
	if p.chunkSize <= 0 {
		return 0
	}
	return int((int64(len(p.data)) + p.chunkSize - 1) / p.chunkSize)
}

// ChunkSize ...
func (p *ByteSliceChunkProvider) ChunkSize(index int) int64 {
	start, end := p.bounds(index)
	return end - start
}

// Offset ...
func (p *ByteSliceChunkProvider) Offset(index int) int64 {
	start, _ := p.bounds(index)
	return start
}

// GetChunk ...
func (p *ByteSliceChunkProvider) GetChunk(index int) (io.Reader, error) {
	if index < 0 || index >= p.NumChunks() {
		return nil, fmt.Errorf("chunk index out of range: %d", index)
	}
	start, end := p.bounds(index)
	return bytes.NewReader(p.data[start:end]), nil
}

func (p *ByteSliceChunkProvider) bounds(index int) (int64, int64) {
	total := int64(len(p.data))
	start := int64(index) * p.chunkSize
	if start > total {
		start = total
	}
	end := start + p.chunkSize
	if end > total {
		end = total
	}
	return start, end
}
