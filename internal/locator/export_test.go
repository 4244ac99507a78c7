package locator

// Exported aliases for internal helpers, used only from tests in this
// package's _test variant.

var (
	ExportStripViewerPrefix  = stripViewerPrefix
	ExportChooseInstance     = chooseInstance
	ExportLargestTextDocument = largestTextDocument
)

func ExportEntries(names ...string) []indexEntry {
	entries := make([]indexEntry, len(names))
	for i, n := range names {
		entries[i] = indexEntry{Name: n}
	}
	return entries
}

func ExportEntriesWithSize(sizes map[string]int64) []indexEntry {
	entries := make([]indexEntry, 0, len(sizes))
	for name, size := range sizes {
		entries = append(entries, indexEntry{Name: name, Size: size})
	}
	return entries
}
