package transcribe

import "errors"

// ErrAPIKeyMissing indicates OPENAI_API_KEY environment variable is not set.
var ErrAPIKeyMissing = errors.New("OPENAI_API_KEY environment variable not set")

// ErrNoChunks indicates a transcription request with nothing to transcribe.
var ErrNoChunks = errors.New("no chunks to transcribe")
