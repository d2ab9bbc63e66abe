// Package output renders search results for the command line.
//
// A component result is first laid out as a Table with FromResult, then
// written by a Formatter:
//
//   - table: an aligned text table, grouped rows indented by depth
//   - json: one JSON object per row (JSON Lines)
//   - csv: a header row followed by one record per row
//
// Example usage:
//
//	t, err := output.FromResult(resp.Results[0], settings.Fields)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	formatter, _ := output.New("csv", os.Stdout)
//	if err := formatter.Format(t); err != nil {
//	    log.Fatal(err)
//	}
//
// The CSV formatter quotes string values that a spreadsheet would evaluate
// as a formula.
package output
