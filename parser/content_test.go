package parser

import (
	"reflect"
	"testing"
)

// --- Links ---

func TestLinks_Single(t *testing.T) {
	got := Links("See [[page:P1|Hello World]] for details")
	want := []PageLink{{PageID: "P1", Title: "Hello World"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Links = %v, want %v", got, want)
	}
}

func TestLinks_Multiple(t *testing.T) {
	got := Links("[[page:a|A]] then [[page:b|B]] and [[page:a|A again]]")
	if len(got) != 3 {
		t.Fatalf("Links = %v, want 3 entries", got)
	}
	if got[1].PageID != "b" || got[2].Title != "A again" {
		t.Errorf("Links = %v", got)
	}
}

func TestLinks_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing close", "[[page:P1|Title"},
		{"missing title", "[[page:P1|]]"},
		{"missing separator", "[[page:P1]]"},
		{"plain wiki link", "[[Some Page]]"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Links(tt.content); len(got) != 0 {
				t.Errorf("Links(%q) = %v, want none", tt.content, got)
			}
		})
	}
}

func TestLinkedPageIDs_Deduplicate(t *testing.T) {
	got := LinkedPageIDs("[[page:x|X]] [[page:y|Y]] [[page:x|X]]")
	want := []string{"x", "y"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LinkedPageIDs = %v, want %v", got, want)
	}
}

func TestFormatLink_RoundTrip(t *testing.T) {
	token := FormatLink("P1", "Hello World")
	if token != "[[page:P1|Hello World]]" {
		t.Fatalf("FormatLink = %q", token)
	}
	got := Links(token)
	if len(got) != 1 || got[0].PageID != "P1" || got[0].Title != "Hello World" {
		t.Errorf("Links(FormatLink) = %v", got)
	}
}

// --- LinkPattern ---

func TestLinkPattern_AnchoredToExactID(t *testing.T) {
	p := LinkPattern("abc")
	if !p.MatchString("x [[page:abc|T]] y") {
		t.Error("expected match for exact id")
	}
	if p.MatchString("[[page:abcd|T]]") {
		t.Error("matched an id that only shares a prefix")
	}
	if p.MatchString("[[page:abc|T") {
		t.Error("matched a token without closing brackets")
	}
}

func TestLinkPattern_QuotesMeta(t *testing.T) {
	p := LinkPattern("a.c")
	if p.MatchString("[[page:abc|T]]") {
		t.Error("regex metacharacters in id were not quoted")
	}
	if !p.MatchString("[[page:a.c|T]]") {
		t.Error("expected literal match")
	}
}

// --- StripLinks ---

func TestStripLinks(t *testing.T) {
	got := StripLinks("see [[page:P1|Hello World]] and [[page:P2|Other]].")
	want := "see Hello World and Other."
	if got != want {
		t.Errorf("StripLinks = %q, want %q", got, want)
	}
}

func TestStripLinks_LeavesPartialTokens(t *testing.T) {
	in := "broken [[page:P1|Title"
	if got := StripLinks(in); got != in {
		t.Errorf("StripLinks = %q, want unchanged", got)
	}
}

// --- Queries ---

func TestSlashQuery(t *testing.T) {
	tests := []struct {
		content string
		query   string
		ok      bool
	}{
		{"/", "", true},
		{"/head", "head", true},
		{"text /head", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			q, ok := SlashQuery(tt.content)
			if q != tt.query || ok != tt.ok {
				t.Errorf("SlashQuery(%q) = (%q, %v), want (%q, %v)", tt.content, q, ok, tt.query, tt.ok)
			}
		})
	}
}

func TestLinkQuery(t *testing.T) {
	tests := []struct {
		content string
		query   string
		ok      bool
	}{
		{"see [[", "", true},
		{"see [[Proj", "Proj", true},
		{"see [[Proj]] done", "", false},
		{"[[page:x|X]] and [[ne", "ne", true},
		{"no link", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			q, ok := LinkQuery(tt.content)
			if q != tt.query || ok != tt.ok {
				t.Errorf("LinkQuery(%q) = (%q, %v), want (%q, %v)", tt.content, q, ok, tt.query, tt.ok)
			}
		})
	}
}

func TestCompleteLink(t *testing.T) {
	got, ok := CompleteLink("see [[Pro", "P9", "Project")
	if !ok {
		t.Fatal("CompleteLink reported no [[")
	}
	if want := "see [[page:P9|Project]] "; got != want {
		t.Errorf("CompleteLink = %q, want %q", got, want)
	}

	if _, ok := CompleteLink("nothing here", "P9", "Project"); ok {
		t.Error("CompleteLink without [[ should report false")
	}
}

// --- Preview ---

func TestPreview(t *testing.T) {
	if got := Preview("hello", 3); got != "hel" {
		t.Errorf("Preview = %q, want hel", got)
	}
	if got := Preview("hi", 200); got != "hi" {
		t.Errorf("Preview = %q, want hi", got)
	}
	if got := Preview("héllo", 2); got != "hé" {
		t.Errorf("Preview multibyte = %q, want hé", got)
	}
	if got := Preview("abc", 0); got != "" {
		t.Errorf("Preview n=0 = %q, want empty", got)
	}
}
