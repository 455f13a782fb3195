// Package match resolves calendar appointments to client records.
//
// Matching is a priority cascade over an ordered list of strategies:
//
//  1. id: the identifier parsed from the appointment title, compared
//     case-insensitively against each client identifier
//  2. exact-name: the parsed client name, compared case-insensitively
//  3. partial-name: containment of one name in the other
//
// The first strategy that finds a client wins, and ties inside a strategy are
// broken by the order of the candidate list. The result carries a confidence
// label (high, medium, low, none) computed by Score, which is the single
// confidence function used both for search results and for pairs supplied
// by a caller.
//
// Everything in this package is a pure function of its inputs. Missing or
// malformed input degrades to a "none" result; nothing returns an error.
package match
