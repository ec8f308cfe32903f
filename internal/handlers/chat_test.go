package handlers

import (
	"bytes"
	"testing"
)

func TestReadUpload(t *testing.T) {
	image := bytes.Repeat([]byte{0x89}, 1<<20)

	data, err := readUpload(bytes.NewReader(image), int64(len(image)))
	if err != nil {
		t.Fatalf("readUpload() error = %v", err)
	}
	if !bytes.Equal(data, image) {
		t.Error("readUpload() data differs from the upload")
	}
	if cap(data) != len(image) {
		t.Errorf("readUpload() cap = %d, want %d", cap(data), len(image))
	}

	if _, err := readUpload(bytes.NewReader(image[:10]), 20); err == nil {
		t.Error("readUpload() of a short file error = nil")
	}
}
