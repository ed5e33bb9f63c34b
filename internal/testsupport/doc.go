// Package testsupport provides fakes for the process, sandbox and detach
// seams plus a throwaway installation tree.
package testsupport
