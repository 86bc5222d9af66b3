package aur

import (
	"strings"
	"testing"
)

func TestSinkParseSortsByName(t *testing.T) {
	body := `{"type":"search","resultcount":3,"results":[
		{"ID":3,"Name":"scowl","Version":"1.0-1","CategoryID":1,"OutOfDate":"0"},
		{"ID":1,"Name":"cower","Version":"14-2","CategoryID":1,"OutOfDate":"0"},
		{"ID":2,"Name":"cower-git","Version":"r100-1","CategoryID":1,"OutOfDate":"0"}
	]}`

	sink := NewSink(false)
	records, err := sink.Parse(strings.NewReader(body))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	names := []string{records[0].Name, records[1].Name, records[2].Name}
	want := []string{"cower", "cower-git", "scowl"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("records[%d].Name = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestSinkParseInfoFields(t *testing.T) {
	body := `{"type":"info","resultcount":1,"results":[{
		"ID":42,"Name":"foo","Version":"1.0-1","CategoryID":4,
		"Description":"a test package","URL":"https://example.com",
		"URLPath":"/cgit/aur.git/snapshot/foo.tar.gz","License":"MIT",
		"Maintainer":"somebody","NumVotes":7,"OutOfDate":"0",
		"FirstSubmitted":1000,"LastModified":2000
	}]}`

	sink := NewSink(false)
	records, err := sink.Parse(strings.NewReader(body))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	rec := records[0]
	if rec.Name != "foo" || rec.ID != 42 || rec.Maintainer != "somebody" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.Orphan() {
		t.Error("record with a maintainer reported as orphan")
	}
	if rec.FirstSubmitted != 1000 || rec.LastModified != 2000 {
		t.Errorf("timestamps = %d/%d, want 1000/2000", rec.FirstSubmitted, rec.LastModified)
	}
}

func TestSinkParseOutOfDateFilter(t *testing.T) {
	body := `{"type":"info","resultcount":2,"results":[
		{"ID":1,"Name":"foo","Version":"1.0-1","OutOfDate":"1"},
		{"ID":2,"Name":"bar","Version":"1.0-1","OutOfDate":"0"}
	]}`

	sink := NewSink(true)
	records, err := sink.Parse(strings.NewReader(body))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(records) != 1 || records[0].Name != "bar" {
		t.Fatalf("ignoreOOD did not filter the out-of-date record: %+v", records)
	}
}

func TestSinkParseErrorTypeSuppressesRecords(t *testing.T) {
	body := `{"type":"error","error":"Invalid query arguments."}`
	sink := NewSink(false)
	records, err := sink.Parse(strings.NewReader(body))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("got %d records for an error document, want 0", len(records))
	}
}

func TestSinkParseOrphanPackage(t *testing.T) {
	body := `{"type":"info","resultcount":1,"results":[{"ID":1,"Name":"foo","Version":"1.0-1"}]}`
	sink := NewSink(false)
	records, err := sink.Parse(strings.NewReader(body))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(records) != 1 || !records[0].Orphan() {
		t.Fatalf("expected an orphan package, got %+v", records)
	}
}

func TestPackageRecordClone(t *testing.T) {
	p := &PackageRecord{Name: "foo", Depends: []string{"bar"}}
	c := p.Clone()
	c.Depends[0] = "mutated"
	if p.Depends[0] != "bar" {
		t.Error("Clone aliased the original's Depends slice")
	}
}
