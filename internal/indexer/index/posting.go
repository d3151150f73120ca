package index

// Posting records the occurrences of one term in one document.
type Posting struct {
	DocIndex  int
	Frequency int
	Positions []int
}

// PostingList is ordered by DocIndex.
type PostingList []Posting

type TermEntry struct {
	Term     string      `json:"term"`
	DocFreq  int         `json:"doc_freq"`
	Postings PostingList `json:"-"`
}
