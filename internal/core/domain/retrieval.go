package domain

// SearchHit is one scored result from a hybrid search call. Hits are
// ephemeral: they live only for the duration of a single retrieval run.
type SearchHit struct {
	FragmentID string  `json:"fragment_id"`
	Snippet    string  `json:"snippet"`
	Score      float64 `json:"score"`
}

// Reference is a resolved piece of original content backing an answer:
// a search hit reconciled with the fragment store.
type Reference struct {
	FragmentID string       `json:"fragment_id"`
	Snippet    string       `json:"snippet"`
	Score      float64      `json:"score"`
	Kind       FragmentKind `json:"kind"`
	PageNumber int          `json:"page_number"`
	Content    string       `json:"content"`
}

// ContextText is one text reference as surfaced to the caller.
type ContextText struct {
	PageNumber int     `json:"page_no"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// RetrievedContext is the outcome of one retrieval run: the ranked reference
// set plus its modality split, all in rank order. References are pairwise
// distinct by fragment id, at most RankingLimit long, scores non-increasing.
type RetrievedContext struct {
	References []Reference   `json:"references"`
	Texts      []ContextText `json:"texts"`
	Images     []string      `json:"images"`
}
