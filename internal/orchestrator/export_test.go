package orchestrator

import "github.com/oakline-data/edgaringest/internal/locator"

var (
	ExportFilterByYear = filterByYear
)

type ExportFilingRef = locator.FilingRef
