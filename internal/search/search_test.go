package search_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"logserv/internal/search"
	"logserv/internal/token"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "f.log")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestSearchNoQueryReturnsAllNewestFirst(t *testing.T) {
	path := writeTemp(t, "one\ntwo\nthree\n")
	res, err := search.Search(path, search.Options{MaxResults: 100})
	require.NoError(t, err)
	require.Equal(t, []string{"three", "two", "one"}, res.Entries)
	require.Nil(t, res.ResumeFrom)
}

func TestSearchFiltersBySubstring(t *testing.T) {
	path := writeTemp(t, "alpha status\nbeta\ngamma status\n")
	text := "status"
	res, err := search.Search(path, search.Options{MaxResults: 100, Query: token.Query{Text: &text}})
	require.NoError(t, err)
	require.Equal(t, []string{"gamma status", "alpha status"}, res.Entries)
}

func TestSearchSkipsEmptyLines(t *testing.T) {
	path := writeTemp(t, "a\n\nb\n")
	res, err := search.Search(path, search.Options{MaxResults: 100})
	require.NoError(t, err)
	require.Equal(t, []string{"b", "a"}, res.Entries)
}

func TestSearchCapsAtMaxResultsAndReportsResumeFrom(t *testing.T) {
	path := writeTemp(t, "one\ntwo\nthree\nfour\n")
	res, err := search.Search(path, search.Options{MaxResults: 2})
	require.NoError(t, err)
	require.Equal(t, []string{"four", "three"}, res.Entries)
	require.NotNil(t, res.ResumeFrom)

	res2, err := search.Search(path, search.Options{MaxResults: 2, ResumeFrom: res.ResumeFrom})
	require.NoError(t, err)
	require.Equal(t, []string{"two", "one"}, res2.Entries)
	require.Nil(t, res2.ResumeFrom)
}

// TestPageMonotonicity is property #3: repeated paging yields strictly
// descending, non-overlapping pages that together equal the full match set.
func TestPageMonotonicity(t *testing.T) {
	lines := []string{}
	for i := 0; i < 25; i++ {
		lines = append(lines, "status line")
	}
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	path := writeTemp(t, content)

	text := "status"
	var got []string
	var resume *int64
	var lastOffset int64 = 1 << 62
	for {
		res, err := search.Search(path, search.Options{MaxResults: 7, Query: token.Query{Text: &text}, ResumeFrom: resume})
		require.NoError(t, err)
		got = append(got, res.Entries...)
		if res.ResumeFrom != nil {
			require.Less(t, *res.ResumeFrom, lastOffset)
			lastOffset = *res.ResumeFrom
		}
		if res.ResumeFrom == nil {
			break
		}
		resume = res.ResumeFrom
	}
	require.Len(t, got, 25)
}

func TestSearchOnEmptyFile(t *testing.T) {
	path := writeTemp(t, "")
	res, err := search.Search(path, search.Options{MaxResults: 10})
	require.NoError(t, err)
	require.Empty(t, res.Entries)
	require.Nil(t, res.ResumeFrom)
}
