// Package core provides the business logic for the suicide dataset explorer.
//
// This package contains all domain logic independent of any UI or transport
// layer. It is used by the web dashboard, the CLI, and tests without
// modification.
//
// # Tables
//
// A [Table] is an ordered, immutable collection of rows with named, typed
// columns. Text cells keep their literal strings; numeric cells hold a
// pgtype.Float8 whose Valid flag is the missing marker.
//
// # Loading
//
// [Load] reads the comma-delimited dataset into the raw table. Every column
// is text and every cell is kept verbatim. Missing, empty or malformed files
// fail with [ErrDataUnavailable]; no partial table is returned.
//
// # Cleaning
//
// [Clean] derives the clean table from the raw one in a single pass:
//
//  1. Column names are lowercased, spaces become underscores and
//     parentheses are removed ("gdp_for_year ($)" -> "gdp_for_year_$").
//  2. suicides_no is coerced to a number.
//  3. gdp_for_year_$ has "$" and "," removed, then is coerced.
//  4. gdp_per_capita_$ is coerced.
//  5. hdi_for_year is dropped when present.
//  6. gdp_per_capita_$ is renamed to gdp_per_capita.
//
// Coercion never fails: cells that cannot be parsed become missing. The
// cleaner fails only with [ErrSchemaMismatch], when a required column is
// absent or two columns normalize to the same name.
//
// # Memoization
//
// [Service] caches the raw table per data path and the clean table per raw
// digest, collapsing concurrent loads with singleflight. [Service.Watch]
// invalidates the cache when the data file changes.
//
// # Export
//
// [WriteCSV] serializes a table as the downloadable cleaned_suicide_data.csv.
package core
