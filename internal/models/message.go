package models

// Streaming states of a rendered message. A message is "loading" while the backend has not answered yet.
const (
	StreamingStateLoading = "loading"
	StreamingStateEnded   = "ended"
)
