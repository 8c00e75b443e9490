// Package rows projects form-submission XML into flat table rows.
//
// A Walker consumes open/text/close events for one submission document and
// builds the rows of one requested table. Tables are named by dot-joined
// field paths from the schema root: the root table itself (one row per
// submission) or any repeat below it (one row per repeat instance).
//
// Rows of repeat tables have no natural key, so each gets an __id derived
// from its ancestry and iteration positions (HashID). The same document
// always yields the same ids. Rows of nested repeat tables reference their
// parent through a "__<path>-id" key, and every repeat encountered inside a
// materialized row leaves a "<field>@odata.navigationLink" entry instead of
// being expanded.
//
// A Walker is single-use and not safe for concurrent use. Independent
// Walkers share nothing and may run in parallel.
package rows
