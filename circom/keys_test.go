package circom

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
)

func mustParse(t *testing.T, raw string) KeyDocument {
	t.Helper()
	doc, err := ParseKeyDocument([]byte(raw))
	qt.Assert(t, err, qt.IsNil)
	return doc
}

func TestMergeOverwritesAndPreserves(t *testing.T) {
	c := qt.New(t)
	reference := mustParse(t, `{"a": 1, "b": 2}`)
	own := mustParse(t, `{"b": 9, "c": 3}`)

	merged := reference.Merge(own)
	c.Assert(merged, qt.DeepEquals, mustParse(t, `{"a": 1, "b": 9, "c": 3}`))

	// inputs stay untouched
	c.Assert(reference, qt.DeepEquals, mustParse(t, `{"a": 1, "b": 2}`))
	c.Assert(own, qt.DeepEquals, mustParse(t, `{"b": 9, "c": 3}`))
}

func TestMergeIdempotent(t *testing.T) {
	c := qt.New(t)
	reference := mustParse(t, `{"a": 1, "b": 2}`)
	own := mustParse(t, `{"b": 9, "c": 3}`)

	once := reference.Merge(own)
	twice := once.Merge(own)
	c.Assert(twice, qt.DeepEquals, once)
}

func TestParseKeyDocumentRejectsNonObject(t *testing.T) {
	c := qt.New(t)
	for _, raw := range []string{`[1, 2, 3]`, `"string"`, `42`, `null`} {
		_, err := ParseKeyDocument([]byte(raw))
		c.Assert(errors.Is(err, ErrMalformedDocument), qt.IsTrue, qt.Commentf("input %s", raw))
	}
}

func TestParseKeyDocumentMalformed(t *testing.T) {
	c := qt.New(t)
	_, err := ParseKeyDocument([]byte(`{"a": `))
	c.Assert(errors.Is(err, ErrMalformedDocument), qt.IsTrue)
}

func TestKeyDocumentRoundTrip(t *testing.T) {
	c := qt.New(t)
	doc := mustParse(t, `{"nested": {"x": [1, 2]}, "s": "v"}`)
	path := t.TempDir() + "/pk.json"
	c.Assert(SaveKeyDocument(path, doc), qt.IsNil)
	loaded, err := LoadKeyDocument(path)
	c.Assert(err, qt.IsNil)
	c.Assert(loaded, qt.DeepEquals, doc)
}
