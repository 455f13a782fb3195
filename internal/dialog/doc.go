// Package dialog implements the two-step selection flow a clinician walks
// through after a session: pick the client, then pick the goal the session
// addressed.
//
//	client ──ChooseClient──▶ goal ──ChooseGoal──▶ done
//
// Each flow is identified by a token and persisted in the store, so the two
// steps may be answered from separate processes. Finishing a flow links the
// appointment to the client manually and returns the pre-filled session
// form link.
package dialog
