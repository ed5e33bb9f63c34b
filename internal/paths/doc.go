// Package paths resolves the fixed filesystem locations the daemon touches.
//
// The installation layout (prefix, configuration and log directories, file
// extensions and the path of the installed binary) is fixed at build time and
// may be overridden with -ldflags. A PathSet is computed once during bootstrap
// from that layout and the configuration base name; the pid file and the
// optional scan log are filled in after the configuration is loaded. PathSet
// is a plain value: callers receive copies and never mutate a shared instance.
package paths
