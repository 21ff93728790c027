package utils

import "testing"

func TestURLSetNoDuplicates(t *testing.T) {
	s := NewURLSet()

	added := s.Add("https://github.com/foo/bar")
	if !added {
		t.Error("first Add should return true")
	}

	added = s.Add("https://github.com/foo/bar")
	if added {
		t.Error("second Add of same URL should return false")
	}

	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
	if !s.Contains("https://github.com/foo/bar") {
		t.Error("Contains should report the added URL")
	}
}

func TestURLSetKeepsInsertionOrder(t *testing.T) {
	s := NewURLSet()
	for _, u := range []string{"c", "a", "c", "b", "a"} {
		s.Add(u)
	}

	got := s.Items()
	want := []string{"c", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("items: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("items[%d]: got %q, want %q", i, got[i], want[i])
		}
	}
}
