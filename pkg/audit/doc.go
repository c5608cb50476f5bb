// Package audit defines the observation surface for dump and load
// operations. Hooks receive normalized events after an operation completes;
// the core package stays persistence- and transport-agnostic, with sink
// adapters (such as audit/usersink) supplied by consumers.
package audit
