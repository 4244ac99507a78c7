package locator_test

import (
	"testing"

	"github.com/oakline-data/edgaringest/internal/locator"
	"github.com/stretchr/testify/assert"
)

func TestStripViewerPrefix(t *testing.T) {
	assert.Equal(t, "doc10q.htm", locator.ExportStripViewerPrefix("ix?doc=/Archives/edgar/data/1/2/doc10q.htm"))
	assert.Equal(t, "doc10q.htm", locator.ExportStripViewerPrefix("doc10q.htm"))
	assert.Equal(t, "doc10q.htm", locator.ExportStripViewerPrefix("some/path/doc10q.htm"))
}

func TestChooseInstance_PrefersAccessionMatch(t *testing.T) {
	entries := locator.ExportEntries(
		"other-20230930_htm.xml",
		"tgt-0000320193-23-000106_htm.xml",
		"tgt-20230930_cal.xml",
	)
	got := locator.ExportChooseInstance(entries, "000032019323000106")
	assert.Equal(t, "tgt-0000320193-23-000106_htm.xml", got)
}

func TestChooseInstance_FallsBackToAnyXML(t *testing.T) {
	entries := locator.ExportEntries("instance.xml", "instance_def.xml")
	got := locator.ExportChooseInstance(entries, "nomatch")
	assert.Equal(t, "instance.xml", got)
}

func TestLargestTextDocument_ExcludesExhibits(t *testing.T) {
	entries := locator.ExportEntriesWithSize(map[string]int64{
		"ex-10.htm": 5000,
		"primary.htm": 200000,
		"ex99.htm": 9000,
	})
	assert.Equal(t, "primary.htm", locator.ExportLargestTextDocument(entries))
}
