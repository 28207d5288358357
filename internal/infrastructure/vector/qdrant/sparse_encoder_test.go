package qdrant

import "testing"

func TestEncodeSparseTextDeterministic(t *testing.T) {
	v1 := encodeSparseText("quarterly revenue figures page 12")
	v2 := encodeSparseText("quarterly revenue figures page 12")
	if len(v1.Indices) != len(v2.Indices) || len(v1.Values) != len(v2.Values) {
		t.Fatalf("vector sizes mismatch: v1=%d/%d v2=%d/%d", len(v1.Indices), len(v1.Values), len(v2.Indices), len(v2.Values))
	}
	for i := range v1.Indices {
		if v1.Indices[i] != v2.Indices[i] {
			t.Fatalf("indices mismatch at %d: %d vs %d", i, v1.Indices[i], v2.Indices[i])
		}
		if v1.Values[i] != v2.Values[i] {
			t.Fatalf("values mismatch at %d: %f vs %f", i, v1.Values[i], v2.Values[i])
		}
	}
}

func TestEncodeSparseTextSortsIndices(t *testing.T) {
	v := encodeSparseText("zulu alpha beta gamma")
	if len(v.Indices) == 0 {
		t.Fatalf("expected non-empty sparse vector")
	}
	for i := 1; i < len(v.Indices); i++ {
		if v.Indices[i-1] > v.Indices[i] {
			t.Fatalf("indices not sorted at %d: %d > %d", i, v.Indices[i-1], v.Indices[i])
		}
	}
}

func TestEncodeSparseTextEmptyNoiseInput(t *testing.T) {
	v := encodeSparseText("___---!!!")
	if len(v.Indices) != 0 || len(v.Values) != 0 {
		t.Fatalf("expected empty sparse vector, got %+v", v)
	}
}

func TestEncodeSparseTextRepeatedTermSaturates(t *testing.T) {
	once := encodeSparseText("ledger")
	many := encodeSparseText("ledger ledger ledger ledger ledger")
	if len(once.Values) != 1 || len(many.Values) != 1 {
		t.Fatalf("expected single-term vectors, got %d and %d", len(once.Values), len(many.Values))
	}
	if many.Values[0] <= once.Values[0] {
		t.Fatalf("expected repeated term weight to grow: once=%f many=%f", once.Values[0], many.Values[0])
	}
	if many.Values[0] >= once.Values[0]*5 {
		t.Fatalf("expected sub-linear growth: once=%f many=%f", once.Values[0], many.Values[0])
	}
}

func TestTokenizeWordsUnicodeAndDigits(t *testing.T) {
	tokens := tokenizeWords("Ată accounts FRAG_0001 versiune-2")
	if len(tokens) == 0 {
		t.Fatalf("expected tokens, got empty")
	}
	foundFrag := false
	foundNum := false
	for _, tok := range tokens {
		if tok == "frag" {
			foundFrag = true
		}
		if tok == "0001" {
			foundNum = true
		}
	}
	if !foundFrag || !foundNum {
		t.Fatalf("expected frag and 0001 tokens, got %v", tokens)
	}
}
