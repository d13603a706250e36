package transcribe

// Exports for testing.

// AudioTranscriber exports audioTranscriber for testing.
type AudioTranscriber = audioTranscriber

// NewTestTranscriber creates an OpenAITranscriber around a mock client.
func NewTestTranscriber(client audioTranscriber, opts ...Option) *OpenAITranscriber {
	return newTranscriber(client, opts...)
}

// ClassifyError exports classifyError for testing.
var ClassifyError = classifyError
