package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// LinkIndex groups listing URLs by comuna. Both comunas and URLs keep
// insertion order, and a URL is stored at most once per comuna.
type LinkIndex struct {
	order []string
	links map[string][]string
	seen  map[string]map[string]struct{}
}

// NewLinkIndex returns an empty index.
func NewLinkIndex() *LinkIndex {
	return &LinkIndex{
		links: make(map[string][]string),
		seen:  make(map[string]map[string]struct{}),
	}
}

// Ensure registers comuna with no links so it is kept in the output
// even when its search yielded nothing.
func (l *LinkIndex) Ensure(comuna string) {
	l.set(comuna)
}

// Add appends url under comuna unless it is already present there.
// It reports whether the url was inserted.
func (l *LinkIndex) Add(comuna, url string) bool {
	set := l.set(comuna)
	if _, dup := set[url]; dup {
		return false
	}
	set[url] = struct{}{}
	l.links[comuna] = append(l.links[comuna], url)
	return true
}

func (l *LinkIndex) set(comuna string) map[string]struct{} {
	set, ok := l.seen[comuna]
	if !ok {
		set = make(map[string]struct{})
		l.seen[comuna] = set
		l.links[comuna] = []string{}
		l.order = append(l.order, comuna)
	}
	return set
}

// Links returns the URLs collected for comuna.
func (l *LinkIndex) Links(comuna string) []string {
	return l.links[comuna]
}

// Comunas returns every registered comuna in insertion order.
func (l *LinkIndex) Comunas() []string {
	return l.order
}

// Len returns the total number of URLs across comunas.
func (l *LinkIndex) Len() int {
	n := 0
	for _, urls := range l.links {
		n += len(urls)
	}
	return n
}

// MarshalJSON writes the index as one object keyed by comuna, in
// insertion order.
func (l *LinkIndex) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, comuna := range l.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(comuna)
		if err != nil {
			return nil, err
		}
		urls := l.links[comuna]
		if urls == nil {
			urls = []string{}
		}
		val, err := json.Marshal(urls)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object keyed by comuna, keeping the key order
// found in the document.
func (l *LinkIndex) UnmarshalJSON(data []byte) error {
	*l = *NewLinkIndex()

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("link index: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		comuna, ok := tok.(string)
		if !ok {
			return fmt.Errorf("link index: expected comuna key, got %v", tok)
		}
		var urls []string
		if err := dec.Decode(&urls); err != nil {
			return fmt.Errorf("link index %q: %w", comuna, err)
		}
		l.Ensure(comuna)
		for _, u := range urls {
			l.Add(comuna, u)
		}
	}
	_, err = dec.Token()
	return err
}
