// Package fingerprint computes the content identity of uploaded documents.
package fingerprint

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// ChunkSize is the read granularity; memory use does not grow with input size.
const ChunkSize = 4096

// ErrRead is returned when the byte source fails mid-stream
var ErrRead = errors.New("fingerprint: read failed")

// Compute streams r through SHA-256 and returns the hex digest
func Compute(r io.Reader) (string, error) {
	h := sha256.New()
	if err := stream(r, h); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ReadAll hashes r while buffering its content, so an upload is read once
func ReadAll(r io.Reader) ([]byte, string, error) {
	var buf bytes.Buffer
	h := sha256.New()
	if err := stream(r, io.MultiWriter(h, &buf)); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), hex.EncodeToString(h.Sum(nil)), nil
}

// Bytes is Compute for an in-memory buffer
func Bytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func stream(r io.Reader, w io.Writer) error {
	chunk := make([]byte, ChunkSize)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			// hash.Hash and bytes.Buffer writes never fail
			_, _ = w.Write(chunk[:n])
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRead, err)
		}
	}
}
