// Package logging assembles the structured slog loggers used by the daemon
// and owns the reopenable log sinks.
//
// A Sink is the single place log bytes leave the process. While a file is
// open, writes go to the file; otherwise they go to the sink's console
// fallback, which is the controlling terminal before daemonization and in
// debug mode. Sinks can be closed and reopened at their fixed path at any
// time to cooperate with external log rotation. Handlers render either a
// compact console line or JSON and hoist the component attribute into the
// line header.
package logging
