// Package pipelist treats a "|"-delimited string as an ordered list of
// trimmed, non-empty items.
//
// Multi-valued client columns (goals, session history) are stored in this
// form. Every function here is pure and total: malformed input degrades to
// an empty list or to the unchanged input text, never to an error.
//
// Equality between items is exact and case-sensitive after trimming.
//
// The separator is not escaped. An item that itself contains "|" is written
// as-is and reads back as several items.
package pipelist
