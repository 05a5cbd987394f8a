package fingerprint

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

type failingReader struct {
	remaining int
}

func (r *failingReader) Read(p []byte) (int, error) {
	if r.remaining <= 0 {
		return 0, errors.New("disk unplugged")
	}
	n := len(p)
	if n > r.remaining {
		n = r.remaining
	}
	r.remaining -= n
	return n, nil
}

func TestCompute_KnownDigest(t *testing.T) {
	got, err := Compute(strings.NewReader("abc"))
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("Compute(abc) = %s, want %s", got, want)
	}
}

func TestCompute_Deterministic(t *testing.T) {
	data := bytes.Repeat([]byte("document"), 3*ChunkSize)

	first, err := Compute(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := Compute(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("Compute() error = %v", err)
		}
		if again != first {
			t.Errorf("Expected identical digest on call %d, got %s vs %s", i, again, first)
		}
	}
	if len(first) != 64 {
		t.Errorf("Expected 64 hex chars, got %d", len(first))
	}
}

func TestCompute_NearDuplicates(t *testing.T) {
	base := bytes.Repeat([]byte{0x42}, ChunkSize+17)
	tweaked := append([]byte(nil), base...)
	tweaked[ChunkSize] ^= 0x01

	a := Bytes(base)
	b := Bytes(tweaked)
	if a == b {
		t.Error("Expected single-byte difference to change the digest")
	}

	truncated := Bytes(base[:len(base)-1])
	if truncated == a {
		t.Error("Expected truncated input to change the digest")
	}
}

func TestCompute_ChunkBoundaries(t *testing.T) {
	for _, size := range []int{0, 1, ChunkSize - 1, ChunkSize, ChunkSize + 1, 5 * ChunkSize} {
		data := bytes.Repeat([]byte{0x7f}, size)
		got, err := Compute(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("Compute(size=%d) error = %v", size, err)
		}
		if got != Bytes(data) {
			t.Errorf("Streamed digest differs from one-shot digest for size %d", size)
		}
	}
}

func TestCompute_ReadFailure(t *testing.T) {
	_, err := Compute(&failingReader{remaining: ChunkSize + 10})
	if !errors.Is(err, ErrRead) {
		t.Errorf("Expected ErrRead, got %v", err)
	}
}

func TestReadAll(t *testing.T) {
	data := bytes.Repeat([]byte("scan"), 2000)

	buf, digest, err := ReadAll(io.LimitReader(bytes.NewReader(data), int64(len(data))))
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !bytes.Equal(buf, data) {
		t.Error("Expected buffered bytes to equal input")
	}
	if digest != Bytes(data) {
		t.Errorf("Expected digest %s, got %s", Bytes(data), digest)
	}

	if _, _, err := ReadAll(&failingReader{remaining: 3}); !errors.Is(err, ErrRead) {
		t.Errorf("Expected ErrRead, got %v", err)
	}
}
