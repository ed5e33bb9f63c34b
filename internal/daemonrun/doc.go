// Package daemonrun owns the startup sequence: resolve paths, enter the broad
// sandbox, detach, open logs, load configuration, write the pid file, narrow
// the sandbox, install signal handling and hand over to the scheduler.
//
// Each step that needs filesystem access first grants exactly that path, so
// the grants made by a successful start match sandbox.Footprint.
package daemonrun
