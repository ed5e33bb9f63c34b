// Package sandbox narrows the operating-system privileges of the daemon in
// stages.
//
// On OpenBSD the stager drives pledge(2) and unveil(2):
//
//   - RequestBroad pledges every promise used anywhere in the process life
//     and unveils "/" with no rights, hiding the whole filesystem.
//   - Grant unveils one path with specific rights. Grants only ever add.
//   - Finalize pledges the minimal runtime promise set. It drops the unveil
//     promise, so no grant can follow.
//
// Every path the process or its restarted image needs must be granted before
// Finalize; Footprint lists them in grant order so the complete resource
// footprint can be audited in one place. On other platforms the backend is a
// no-op but the stager still enforces ordering and records its trace.
package sandbox
