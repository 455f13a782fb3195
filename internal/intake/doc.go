// Package intake builds pre-filled form links and applies form submissions
// to the client directory.
//
// A form is configured as a mapping from domain fields to the external
// form's field ids (see config.Form). Domain fields are directory column
// names plus the session context fields appointment_id and goal, which are
// never written to the client row.
//
// Ingestion is idempotent: each submission has a content-addressed id
// (SubmissionID) and is applied at most once. Every policy is also
// idempotent on its own, so a submission whose record write failed can be
// re-ingested safely.
package intake
