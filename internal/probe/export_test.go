package probe

// Export internal functions for testing.
// This file is only compiled during tests (suffix _test.go).

// ProbeArgs exports probeArgs for testing.
var ProbeArgs = probeArgs

// CommandRunner exports commandRunner interface for testing.
type CommandRunner = commandRunner
