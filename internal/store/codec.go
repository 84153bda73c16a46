package store

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"contentdex/internal/model"
)

// Token tuples and title word lists are stored as zlib-compressed,
// length-prefixed binary streams so any implementation sharing the codec
// can read existing rows.
//
// Tuple stream layout (big endian):
//
//	u32 tuple count
//	per tuple: u8 presence flags (bit0 punct_before, bit1 punct_after,
//	           bit2 spacing), u32 word id, then one u32 per present field
//
// Word-ID list layout: u32 count, then u32 per id.

const (
	flagPunctBefore = 1 << 0
	flagPunctAfter  = 1 << 1
	flagSpacing     = 1 << 2
)

// EncodeTuples serializes and compresses a token-tuple stream.
func EncodeTuples(tuples []model.TokenTuple) ([]byte, error) {
	var raw bytes.Buffer
	raw.Grow(4 + len(tuples)*9)
	writeU32(&raw, uint32(len(tuples)))
	for _, t := range tuples {
		var flags byte
		if t.PunctBefore != nil {
			flags |= flagPunctBefore
		}
		if t.PunctAfter != nil {
			flags |= flagPunctAfter
		}
		if t.Spacing != nil {
			flags |= flagSpacing
		}
		raw.WriteByte(flags)
		writeU32(&raw, t.WordID)
		if t.PunctBefore != nil {
			writeU32(&raw, *t.PunctBefore)
		}
		if t.PunctAfter != nil {
			writeU32(&raw, *t.PunctAfter)
		}
		if t.Spacing != nil {
			writeU32(&raw, *t.Spacing)
		}
	}
	return deflate(raw.Bytes())
}

// DecodeTuples reverses EncodeTuples.
func DecodeTuples(data []byte) ([]model.TokenTuple, error) {
	raw, err := inflate(data)
	if err != nil {
		return nil, err
	}
	r := bytes.NewReader(raw)
	count, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("reading tuple count: %w", err)
	}
	tuples := make([]model.TokenTuple, 0, count)
	for i := uint32(0); i < count; i++ {
		flags, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("reading tuple %d flags: %w", i, err)
		}
		var t model.TokenTuple
		if t.WordID, err = readU32(r); err != nil {
			return nil, fmt.Errorf("reading tuple %d word: %w", i, err)
		}
		if flags&flagPunctBefore != 0 {
			v, err := readU32(r)
			if err != nil {
				return nil, fmt.Errorf("reading tuple %d punct_before: %w", i, err)
			}
			t.PunctBefore = &v
		}
		if flags&flagPunctAfter != 0 {
			v, err := readU32(r)
			if err != nil {
				return nil, fmt.Errorf("reading tuple %d punct_after: %w", i, err)
			}
			t.PunctAfter = &v
		}
		if flags&flagSpacing != 0 {
			v, err := readU32(r)
			if err != nil {
				return nil, fmt.Errorf("reading tuple %d spacing: %w", i, err)
			}
			t.Spacing = &v
		}
		tuples = append(tuples, t)
	}
	return tuples, nil
}

// EncodeWordIDs serializes and compresses an ordered word-ID list.
func EncodeWordIDs(ids []int64) ([]byte, error) {
	var raw bytes.Buffer
	raw.Grow(4 + len(ids)*4)
	writeU32(&raw, uint32(len(ids)))
	for _, id := range ids {
		if id < 0 || id > math.MaxUint32 {
			return nil, fmt.Errorf("word id %d out of range", id)
		}
		writeU32(&raw, uint32(id))
	}
	return deflate(raw.Bytes())
}

// DecodeWordIDs reverses EncodeWordIDs.
func DecodeWordIDs(data []byte) ([]int64, error) {
	raw, err := inflate(data)
	if err != nil {
		return nil, err
	}
	r := bytes.NewReader(raw)
	count, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("reading id count: %w", err)
	}
	ids := make([]int64, 0, count)
	for i := uint32(0); i < count; i++ {
		v, err := readU32(r)
		if err != nil {
			return nil, fmt.Errorf("reading id %d: %w", i, err)
		}
		ids = append(ids, int64(v))
	}
	return ids, nil
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func readU32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func deflate(raw []byte) ([]byte, error) {
	var out bytes.Buffer
	w := zlib.NewWriter(&out)
	if _, err := w.Write(raw); err != nil {
		return nil, fmt.Errorf("compressing blob: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compressing blob: %w", err)
	}
	return out.Bytes(), nil
}

func inflate(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening compressed blob: %w", err)
	}
	defer r.Close()
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompressing blob: %w", err)
	}
	return raw, nil
}
