package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	doc := `{
		"version": ["sessionrestore", 1],
		"windows": [
			{"tabs": [
				{"entries": [{"url": "https://a.example/"}, {"url": "https://b.example/x?y=1"}]},
				{"entries": []}
			]},
			{"tabs": []}
		],
		"_closedWindows": []
	}`

	store, err := Decode([]byte(doc))
	require.NoError(t, err)

	want := &SessionStore{Windows: []Window{
		{Tabs: []Tab{
			{Entries: []Entry{{URL: "https://a.example/"}, {URL: "https://b.example/x?y=1"}}},
			{},
		}},
		{},
	}}
	assert.Equal(t, want, store)

	cur, ok := store.Windows[0].Tabs[0].Current()
	require.True(t, ok)
	assert.Equal(t, "https://b.example/x?y=1", cur.URL)
	assert.True(t, store.Windows[0].Tabs[1].Empty())
	_, ok = store.Windows[0].Tabs[1].Current()
	assert.False(t, ok)
}

func TestDecodeIgnoresUnknownKeys(t *testing.T) {
	noisy := `{
		"session": {"lastUpdate": 1700000000000, "startTime": 1.5e12, "recentCrashes": 0},
		"windows": [{
			"selected": 1,
			"tabs": [{
				"index": 1,
				"hidden": false,
				"attributes": {},
				"image": null,
				"extData": {"weird}{key": "[not an array", "deep": [[[{"x": [1, {"y": "z"}]}]]]},
				"entries": [{
					"url": "https://a.example/",
					"title": "X",
					"extra": {"nested": [1, 2, 3]},
					"children": [{"url": "https://child.example/", "title": "ignored"}],
					"triggeringPrincipal_base64": "{\"3\":{}}"
				}]
			}],
			"_closedTabs": [{"state": {"entries": [{"url": "https://closed.example/"}]}}]
		}],
		"global": {}
	}`
	clean := `{"windows":[{"tabs":[{"entries":[{"url":"https://a.example/"}]}]}]}`

	got, err := Decode([]byte(noisy))
	require.NoError(t, err)
	want, err := Decode([]byte(clean))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodeUnescapesURL(t *testing.T) {
	store, err := Decode([]byte(`{"windows":[{"tabs":[{"entries":[{"url":"https:\/\/a.example\/päth"}]}]}]}`))
	require.NoError(t, err)
	assert.Equal(t, "https://a.example/päth", store.Windows[0].Tabs[0].Entries[0].URL)
}

func TestDecodeMissingField(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		strct string
		field string
		path  string
	}{
		{"store", `{"notwindows": []}`, "SessionStore", "windows", "$"},
		{"window", `{"windows": [{"tabs": []}, {"nottabs": []}]}`, "Window", "tabs", "$.windows[1]"},
		{"tab", `{"windows": [{"tabs": [{"notentries": []}]}]}`, "Tab", "entries", "$.windows[0].tabs[0]"},
		{"entry", `{"windows": [{"tabs": [{"entries": [{"title": "t"}]}]}]}`, "Entry", "url", "$.windows[0].tabs[0].entries[0]"},
		{"nested lookalike", `{"windows": [{"tabs": [{"state": {"entries": []}}]}]}`, "Tab", "entries", "$.windows[0].tabs[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc))
			var mf *MissingFieldError
			require.ErrorAs(t, err, &mf)
			assert.Equal(t, tt.strct, mf.Struct)
			assert.Equal(t, tt.field, mf.Field)
			assert.Equal(t, tt.path, mf.Path)
			assert.Contains(t, mf.Error(), tt.field)
		})
	}
}

func TestDecodeMissingFieldOffset(t *testing.T) {
	doc := `{"windows": [{"tabs": [{"notentries": []}]}]}`
	_, err := Decode([]byte(doc))
	var mf *MissingFieldError
	require.ErrorAs(t, err, &mf)
	assert.Equal(t, byte('{'), doc[mf.Offset])
	assert.Equal(t, `{"notentries": []}`, doc[mf.Offset:mf.Offset+18])
}

func TestDecodeTypeMismatch(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		field string
		got   string
	}{
		{"url number", `{"windows":[{"tabs":[{"entries":[{"url": 42}]}]}]}`, "url", "number"},
		{"url null", `{"windows":[{"tabs":[{"entries":[{"url": null}]}]}]}`, "url", "null"},
		{"url object", `{"windows":[{"tabs":[{"entries":[{"url": {"href": "x"}}]}]}]}`, "url", "object"},
		{"entries object", `{"windows":[{"tabs":[{"entries": {}}]}]}`, "entries", "object"},
		{"tabs string", `{"windows":[{"tabs": "none"}]}`, "tabs", "string"},
		{"windows null", `{"windows": null}`, "windows", "null"},
		{"window not object", `{"windows": [[]]}`, "windows", "array"},
		{"entry not object", `{"windows":[{"tabs":[{"entries":["https://a.example/"]}]}]}`, "entries", "string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc))
			var tm *TypeMismatchError
			require.ErrorAs(t, err, &tm)
			assert.Equal(t, tt.field, tm.Field)
			assert.Equal(t, tt.got, tm.Got)
		})
	}
}

func TestDecodeTypeMismatchOffset(t *testing.T) {
	doc := `{"windows":[{"tabs":[{"entries":["https://a.example/"]}]}]}`
	_, err := Decode([]byte(doc))
	var tm *TypeMismatchError
	require.ErrorAs(t, err, &tm)
	assert.Equal(t, byte('"'), doc[tm.Offset])
	assert.Equal(t, "$.windows[0].tabs[0].entries[0]", tm.Path)
}

func TestDecodeDuplicateField(t *testing.T) {
	_, err := Decode([]byte(`{"windows":[{"tabs":[{"entries":[{"url":"a","url":"b"}]}]}]}`))
	var df *DuplicateFieldError
	require.ErrorAs(t, err, &df)
	assert.Equal(t, "Entry", df.Struct)
	assert.Equal(t, "url", df.Field)
}

func TestDecodeSyntaxError(t *testing.T) {
	docs := map[string]string{
		"empty":                 ``,
		"root array":            `[]`,
		"root string":           `"windows"`,
		"unterminated":          `{"windows": [{"tabs": []}`,
		"missing colon":         `{"windows" []}`,
		"trailing":              `{"windows": []} {}`,
		"bad array":             `{"windows": [{"tabs": []},]}`,
		"bad literal":           `{"windows": [{"tabs": [], "x": nul}]}`,
		"bad url escape":        `{"windows":[{"tabs":[{"entries":[{"url":"\uZZZZ"}]}]}]}`,
		"missing comma":         `{"windows": [] "x": 1}`,
		"skipped empty element": `{"windows": [], "x": [1,,2]}`,
		"skipped bad number":    `{"windows": [], "x": 1.2.3}`,
		"skipped missing value": `{"windows": [], "x": {"a": }}`,
		"trailing comma":        `{"windows": [],}`,
		"leading zero":          `{"windows": [], "x": 0123}`,
		"raw newline":           "{\"windows\": [], \"x\": \"a\nb\"}",
		"nested missing colon":  `{"windows":[{"tabs":[{"entries":[],"x":{"a" 1}}]}]}`,
		"invalid utf8 url":      "{\"windows\":[{\"tabs\":[{\"entries\":[{\"url\":\"https://a.example/\xff\xfe\"}]}]}]}",
	}
	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(doc))
			var se *SyntaxError
			require.ErrorAs(t, err, &se, "got %v", err)
			assert.GreaterOrEqual(t, se.Offset, 0)
			assert.LessOrEqual(t, se.Offset, len(doc))
		})
	}
}

func TestDecodeSyntaxErrorOffset(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		at   string // first occurrence marks the offending byte
	}{
		{"empty element", `{"windows": [], "x": [1,,2]}`, ",2"},
		{"second decimal point", `{"windows": [], "x": 1.2.3}`, ".3"},
		{"missing value", `{"windows": [], "x": {"a": }}`, "}}"},
		{"trailing comma", `{"windows": [],}`, "}"},
		{"leading zero", `{"windows": [], "x": 0123}`, "123"},
		{"raw newline", "{\"windows\": [], \"x\": \"a\nb\"}", "\n"},
		{"missing colon in skipped object", `{"windows":[{"tabs":[{"entries":[],"x":{"a" 1}}]}]}`, "1}"},
		{"invalid utf8", "{\"windows\":[{\"tabs\":[{\"entries\":[{\"url\":\"https://a.example/\xff\xfe\"}]}]}]}", "\xff"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc))
			var se *SyntaxError
			require.ErrorAs(t, err, &se, "got %v", err)
			assert.Equal(t, strings.Index(tt.doc, tt.at), se.Offset)
		})
	}
}

func TestDecodeUnexpectedEndOffset(t *testing.T) {
	doc := `{"windows": [{"tabs": []}`
	_, err := Decode([]byte(doc))
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, len(doc), se.Offset)
}

func TestDecodeTrailingOffset(t *testing.T) {
	doc := `{"windows": []}  x`
	_, err := Decode([]byte(doc))
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, len(doc)-1, se.Offset)
}

func TestDecodeAllowsSurroundingWhitespace(t *testing.T) {
	store, err := Decode([]byte("\n  {\"windows\": []}\n"))
	require.NoError(t, err)
	assert.Empty(t, store.Windows)
}

func TestPathString(t *testing.T) {
	var root *path
	assert.Equal(t, "$", root.String())
	assert.Equal(t, "$.windows[2].tabs", root.key("windows").index(2).key("tabs").String())
}
