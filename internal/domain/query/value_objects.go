package query

import (
	"bytes"
	"encoding/hex"
	"encoding/json"

	"golang.org/x/crypto/blake2b"
)

// Content is a structured query body in its canonical (compacted) JSON form.
type Content struct {
	raw json.RawMessage
}

func NewContent(raw []byte) (Content, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Content{}, ErrEmptyContent
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return Content{}, ErrMalformedContent
	}
	return Content{raw: buf.Bytes()}, nil
}

func (c Content) Raw() json.RawMessage {
	return c.raw
}

// Hash identifies identical structured query bodies regardless of whitespace.
func (c Content) Hash() string {
	sum := blake2b.Sum256(c.raw)
	return hex.EncodeToString(sum[:])
}

// ResultLine is the count one site reported for one query.
type ResultLine struct {
	SiteName     string     `json:"siteName"`
	Type         ResultType `json:"type"`
	PatientCount int        `json:"numberOfPatients"`
}

func SuccessLine(siteName string, count int) ResultLine {
	return ResultLine{SiteName: siteName, Type: ResultSuccess, PatientCount: count}
}

func ErrorLine(siteName string) ResultLine {
	return ResultLine{SiteName: siteName, Type: ResultError}
}

// Snapshot is derived on read and never stored.
type Snapshot struct {
	TotalPatients int
	Lines         []ResultLine
}

// NewSnapshot sums SUCCESS lines only; ERROR lines stay visible but do not count.
func NewSnapshot(lines []ResultLine) Snapshot {
	total := 0
	for _, l := range lines {
		if l.Type == ResultSuccess {
			total += l.PatientCount
		}
	}
	if lines == nil {
		lines = []ResultLine{}
	}
	return Snapshot{TotalPatients: total, Lines: lines}
}

func EmptySnapshot() Snapshot {
	return Snapshot{Lines: []ResultLine{}}
}

// SuccessfulLines drops ERROR lines, which are excluded from site-count displays.
func (s Snapshot) SuccessfulLines() []ResultLine {
	out := make([]ResultLine, 0, len(s.Lines))
	for _, l := range s.Lines {
		if l.Type == ResultSuccess {
			out = append(out, l)
		}
	}
	return out
}
