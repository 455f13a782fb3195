// Package store provides SQLite-backed storage for the client directory and
// the bookkeeping around it.
//
// Tables:
//   - clients: the client directory. One row per client, extra columns kept
//     as a JSON object of column name to text value.
//   - sessions: one row per calendar appointment with its client link and
//     documentation status.
//   - submissions: ingested form submissions keyed by content hash, so the
//     same submission is applied at most once.
//   - dialog_flows: state of in-progress client → goal selection dialogs.
//
// # Ordering
//
// Clients carry a seq column assigned on first insert. ListClients orders by
// seq so the candidate list handed to the matcher is stable, which matters
// because match ties are broken by list order.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Client ids are unique case-insensitively (COLLATE NOCASE).
package store
