// Package supervisor runs the daemon once bootstrap has finished.
//
// Three lifecycle flags are the only state shared between signal delivery and
// the main loop. The Bridge turns SIGHUP, SIGUSR1 and a self-rearming
// one-second timer into single flag writes; SIGINT is the one exception and
// logs a notice and exits on the spot. SIGPIPE is ignored.
//
// The Scheduler is the main loop. Each Step drives the messaging and scanning
// progress functions, then handles a pending restart, else a pending log
// reopen, then a pending tick, always in that order. Restart replaces the
// process image after marking every descriptor below the open-file ceiling
// close-on-exec; nothing but argv crosses that boundary.
//
// The scheduler has no timeouts. Every collaborator it calls must bound its
// own blocking.
package supervisor
