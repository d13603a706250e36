package cli

// Export internal functions for testing.

// RunConfigSet exports runConfigSet for testing.
var RunConfigSet = runConfigSet

// RunConfigGet exports runConfigGet for testing.
var RunConfigGet = runConfigGet

// RunConfigList exports runConfigList for testing.
var RunConfigList = runConfigList

// ClampParallel exports clampParallel for testing.
var ClampParallel = clampParallel

// DeriveOutputPath exports deriveOutputPath for testing.
var DeriveOutputPath = deriveOutputPath

// SupportedFormatsList exports supportedFormatsList for testing.
var SupportedFormatsList = supportedFormatsList

// SplitSettings exports splitSettings for testing.
var SplitSettings = splitSettings

// FramesSettings exports framesSettings for testing.
var FramesSettings = framesSettings

// ServeHTTP exports serveHTTP for testing.
var ServeHTTP = serveHTTP

// SplitOptions exports splitOptions for testing.
type SplitOptions = splitOptions

// FramesOptions exports framesOptions for testing.
type FramesOptions = framesOptions
