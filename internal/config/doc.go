// Package config loads caseline configuration from a CUE file.
//
// The file is unified with an embedded schema (schema.cue) that supplies
// defaults and rejects unknown fields, then decoded into Config. A missing
// file is not an error at this layer; callers use Default() instead.
//
// Example:
//
//	columns: goals: "Goals"
//	forms: intake: {
//		base_url: "https://forms.example.com/intake"
//		fields: {client_id: "entry.1", name: "entry.2", goals: "entry.3"}
//		prefill: ["client_id", "name"]
//	}
//	policies: session_history: "append"
package config
