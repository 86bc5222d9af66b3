package aur

import (
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"strings"
)

// frame tracks one level of JSON structure the sink is currently inside. Unlike a DOM
// decode, the sink never buffers a full value: it reacts to each token as it arrives
// off the wire, building at most one record at a time.
type frame struct {
	isObject  bool
	expectKey bool // only meaningful when isObject
}

// Sink is the streaming JSON parser for registry responses. It is single-use and
// single-owner: each worker creates its own Sink per query, never shares it, and
// discards it when the query returns.
type Sink struct {
	ignoreOOD bool

	depth   int
	key     string
	cur     PackageRecord
	errored bool

	records []*PackageRecord
}

// NewSink creates a parser state. When ignoreOOD is set, a record whose out-of-date
// flag is 1 is discarded at object-end instead of being inserted into the sorted
// result list.
func NewSink(ignoreOOD bool) *Sink {
	return &Sink{ignoreOOD: ignoreOOD}
}

// Parse drives the sink off r until EOF, returning the sorted, deduplication-ready
// record list accumulated so far. A malformed document returns the records parsed
// before the error alongside the decoder's error, unwrapped; Session.Query wraps it in
// *errs.ParseError.
func (s *Sink) Parse(r io.Reader) ([]*PackageRecord, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var stack []frame

	consumeValue := func() {
		if n := len(stack); n > 0 && stack[n-1].isObject {
			stack[n-1].expectKey = true
		}
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return s.records, err
		}

		switch t := tok.(type) {
		case json.Delim:
			switch t {
			case '{':
				s.depth++
				if s.depth > 1 {
					s.cur.reset()
				}
				stack = append(stack, frame{isObject: true, expectKey: true})

			case '}':
				s.depth--
				stack = stack[:len(stack)-1]
				if s.depth > 0 {
					s.endRecord()
				}
				consumeValue()

			case '[':
				stack = append(stack, frame{isObject: false})

			case ']':
				stack = stack[:len(stack)-1]
				consumeValue()
			}

		case string:
			top := len(stack) - 1
			if top >= 0 && stack[top].isObject && stack[top].expectKey {
				s.key = t
				stack[top].expectKey = false
				continue
			}
			s.stringValue(t)
			consumeValue()

		case json.Number:
			s.numberValue(t)
			consumeValue()

		case bool, nil:
			consumeValue()
		}
	}

	return s.records, nil
}

// endRecord is invoked on every object-end below the outer document object (depth > 0
// after the decrement), i.e. every per-package record.
func (s *Sink) endRecord() {
	if s.errored {
		return
	}
	if s.ignoreOOD && s.cur.OutOfDate {
		return
	}
	s.insertSorted(s.cur.Clone())
}

func (s *Sink) insertSorted(rec *PackageRecord) {
	i := sort.Search(len(s.records), func(i int) bool {
		return s.records[i].Name >= rec.Name
	})
	s.records = append(s.records, nil)
	copy(s.records[i+1:], s.records[i:])
	s.records[i] = rec
}

func (s *Sink) stringValue(v string) {
	switch s.key {
	case "type":
		if strings.HasPrefix(v, "error") {
			s.errored = true
		}
	case "ID":
		s.cur.ID = atoiSafe(v)
	case "Name":
		s.cur.Name = v
	case "Version":
		s.cur.Version = v
	case "CategoryID":
		s.cur.CategoryID = atoiSafe(v)
	case "Description":
		s.cur.Description = v
	case "URL":
		s.cur.URL = v
	case "URLPath":
		s.cur.URLPath = v
	case "License":
		s.cur.License = v
	case "NumVotes":
		s.cur.NumVotes = atoiSafe(v)
	case "OutOfDate":
		s.cur.OutOfDate = len(v) > 0 && v[0] != '0'
	case "Maintainer":
		s.cur.Maintainer = v
	case "FirstSubmitted":
		s.cur.FirstSubmitted = atoi64Safe(v)
	case "LastModified":
		s.cur.LastModified = atoi64Safe(v)
	}
}

func (s *Sink) numberValue(v json.Number) {
	switch s.key {
	case "ID":
		s.cur.ID = int(numInt(v))
	case "CategoryID":
		s.cur.CategoryID = int(numInt(v))
	case "NumVotes":
		s.cur.NumVotes = int(numInt(v))
	case "OutOfDate":
		s.cur.OutOfDate = numInt(v) != 0
	case "FirstSubmitted":
		s.cur.FirstSubmitted = numInt(v)
	case "LastModified":
		s.cur.LastModified = numInt(v)
	}
}

func numInt(n json.Number) int64 {
	v, _ := n.Int64()
	return v
}

func atoiSafe(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func atoi64Safe(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
