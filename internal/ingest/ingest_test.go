package ingest

import "testing"

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		files []string
		want  string
	}{
		{[]string{"part-0.parquet", "part-1.parquet"}, "parquet"},
		{[]string{"data.jsonl"}, "json"},
		{[]string{"trips.csv"}, "csv"},
		{[]string{"readme.md", "trips.csv"}, "csv"},
	}
	for _, tc := range cases {
		if got := detectFormat(tc.files); got != tc.want {
			t.Errorf("detectFormat(%v) = %q, want %q", tc.files, got, tc.want)
		}
	}
}

func TestJoinKey(t *testing.T) {
	if got := joinKey("trips", "part-0.csv", false); got != "trips/part-0.csv" {
		t.Errorf("joinKey directory = %q", got)
	}
	if got := joinKey("trips/", "part-0.csv", false); got != "trips/part-0.csv" {
		t.Errorf("joinKey trailing slash = %q", got)
	}
	if got := joinKey("trips/part-0.csv", "part-0.csv", true); got != "trips/part-0.csv" {
		t.Errorf("joinKey file path = %q", got)
	}
}

func TestEnsureTrailingSlash(t *testing.T) {
	if got := ensureTrailingSlash(""); got != "" {
		t.Errorf("ensureTrailingSlash empty = %q", got)
	}
	if got := ensureTrailingSlash("a/b"); got != "a/b/" {
		t.Errorf("ensureTrailingSlash = %q", got)
	}
	if got := ensureTrailingSlash("a/b/"); got != "a/b/" {
		t.Errorf("ensureTrailingSlash idempotent = %q", got)
	}
}
