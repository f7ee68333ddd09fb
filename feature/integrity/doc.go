// Package integrity checks that the stored sync state still matches the
// destination.
//
// # Checks Provided
//
//   - Files: every tracked conversation still has its document in the output
//     directory. An unchanged conversation is never rewritten, so a document
//     deleted by hand stays missing until its entry is forgotten.
//   - Schema: the state tables carry every expected column. Only available
//     with the database state driver.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/files : Runs the files check against the live state.
//   - GET /integrity/schema : Runs the schema check.
//
// Repairs change the state and are therefore only offered by the
// "integrity --fix" command, which must not run alongside "start".
package integrity
