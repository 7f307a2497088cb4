package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
	"time"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	records := []*ActionRecord{
		{RecordKind: RecordKindAction, SequenceID: 1, Kind: "write_file", Path: "a.txt", Content: "hi"},
		{RecordKind: RecordKindAction, SequenceID: 2, Kind: "run_command", Content: "ls"},
	}
	for _, r := range records {
		if err := EncodeFrame(&buf, r); err != nil {
			t.Fatal(err)
		}
	}

	decoder := NewFrameDecoder(&buf)
	for i, want := range records {
		payload, err := decoder.ReadFrame()
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		got, err := DecodeActionRecord(payload)
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if got.SequenceID != want.SequenceID || got.Kind != want.Kind || got.Content != want.Content {
			t.Errorf("frame %d = %+v, want %+v", i, got, want)
		}
	}

	if _, err := decoder.ReadFrame(); err != io.EOF {
		t.Errorf("trailing read error = %v, want io.EOF", err)
	}
}

func TestFrameTruncated(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeFrame(&buf, &ActionRecord{SequenceID: 1}); err != nil {
		t.Fatal(err)
	}

	// Cut the segment mid-payload.
	truncated := buf.Bytes()[:buf.Len()-2]
	decoder := NewFrameDecoder(bytes.NewReader(truncated))

	_, err := decoder.ReadFrame()
	if !IsCorruptSegmentError(err) {
		t.Fatalf("error = %v, want corrupt segment", err)
	}
}

func TestFrameOversized(t *testing.T) {
	var lengthBuf [LengthPrefixSize]byte
	binary.BigEndian.PutUint32(lengthBuf[:], MaxPayloadSize+1)

	decoder := NewFrameDecoder(bytes.NewReader(lengthBuf[:]))
	_, err := decoder.ReadFrame()
	if !IsCorruptSegmentError(err) {
		t.Fatalf("error = %v, want corrupt segment", err)
	}

	var frameErr *FrameError
	if !errors.As(err, &frameErr) || frameErr.Kind != FrameErrorTooLarge {
		t.Errorf("kind = %v, want FrameErrorTooLarge", err)
	}
}

func TestFrameDecodeErrorNotCorrupt(t *testing.T) {
	// A frame that reads cleanly but carries garbage msgpack is a decode
	// error confined to that frame, not segment corruption.
	var buf bytes.Buffer
	garbage := []byte{0xc1, 0xc1, 0xc1} // 0xc1 is never used in msgpack
	var lengthBuf [LengthPrefixSize]byte
	binary.BigEndian.PutUint32(lengthBuf[:], uint32(len(garbage)))
	buf.Write(lengthBuf[:])
	buf.Write(garbage)

	decoder := NewFrameDecoder(&buf)
	payload, err := decoder.ReadFrame()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeActionRecord(payload); err == nil {
		t.Fatal("DecodeActionRecord() accepted garbage")
	} else if IsCorruptSegmentError(err) {
		t.Error("decode error reported as segment corruption")
	}
}
