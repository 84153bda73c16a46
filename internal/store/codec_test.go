package store

import (
	"bytes"
	"compress/zlib"
	"testing"

	"contentdex/internal/model"
)

func TestTupleCodecRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		tuples []model.TokenTuple
	}{
		{"empty", nil},
		{"word only", []model.TokenTuple{{WordID: 1}}},
		{"all fields", []model.TokenTuple{
			{WordID: 1, PunctBefore: u32p(10), PunctAfter: u32p(11), Spacing: u32p(12)},
		}},
		{"mixed presence", []model.TokenTuple{
			{WordID: 1, Spacing: u32p(3)},
			{WordID: 2, PunctBefore: u32p(4)},
			{WordID: 3},
			{WordID: 4, PunctAfter: u32p(5), Spacing: u32p(3)},
		}},
		{"large ids", []model.TokenTuple{
			{WordID: 4294967295, PunctBefore: u32p(4294967294)},
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			blob, err := EncodeTuples(tc.tuples)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			got, err := DecodeTuples(blob)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(got) != len(tc.tuples) {
				t.Fatalf("got %d tuples, want %d", len(got), len(tc.tuples))
			}
			for i := range tc.tuples {
				want := tc.tuples[i]
				if got[i].WordID != want.WordID {
					t.Errorf("tuple %d word = %d, want %d", i, got[i].WordID, want.WordID)
				}
				checkOpt(t, i, "punct_before", got[i].PunctBefore, want.PunctBefore)
				checkOpt(t, i, "punct_after", got[i].PunctAfter, want.PunctAfter)
				checkOpt(t, i, "spacing", got[i].Spacing, want.Spacing)
			}
		})
	}
}

func checkOpt(t *testing.T, i int, field string, got, want *uint32) {
	t.Helper()
	switch {
	case got == nil && want == nil:
	case got == nil || want == nil:
		t.Errorf("tuple %d %s presence mismatch", i, field)
	case *got != *want:
		t.Errorf("tuple %d %s = %d, want %d", i, field, *got, *want)
	}
}

func TestWordIDCodecRoundTrip(t *testing.T) {
	ids := []int64{1, 42, 4294967295}
	blob, err := EncodeWordIDs(ids)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeWordIDs(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != len(ids) {
		t.Fatalf("got %v", got)
	}
	for i := range ids {
		if got[i] != ids[i] {
			t.Errorf("id %d = %d, want %d", i, got[i], ids[i])
		}
	}
}

func TestEncodeWordIDsRejectsOutOfRange(t *testing.T) {
	if _, err := EncodeWordIDs([]int64{-1}); err == nil {
		t.Error("negative id must be rejected")
	}
	if _, err := EncodeWordIDs([]int64{1 << 33}); err == nil {
		t.Error("id above u32 must be rejected")
	}
}

func TestBlobIsZlib(t *testing.T) {
	blob, err := EncodeTuples([]model.TokenTuple{{WordID: 7}})
	if err != nil {
		t.Fatal(err)
	}
	r, err := zlib.NewReader(bytes.NewReader(blob))
	if err != nil {
		t.Fatalf("blob is not a zlib stream: %v", err)
	}
	r.Close()
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := DecodeTuples([]byte("not zlib")); err == nil {
		t.Error("garbage must not decode")
	}
}
