// Package config loads, normalizes, and validates the daemon configuration.
//
// The configuration file is TOML, located by the path resolver at
// <configDir>/<name>.toml. It supplies the runtime paths that are not derived
// from the configuration name (pid file and optional scan log) together with
// logging and scheduling knobs. Relative paths are resolved against the
// installation root so the result does not depend on the working directory.
//
// Configuration is read exactly once per process image. There is no reload
// path: reconfiguring the daemon means restarting it.
package config
