package format

// Capabilities documents what a formatter's target wire shape can carry. It
// is pure metadata: nothing in this package or its callers branches on it at
// runtime, per spec.md §4.1 ("capability is documentation for the host").
type Capabilities struct {
	ProviderName       string
	SupportsToolAPI    bool
	SupportsMultiAgent bool
	SupportsVision     bool
	SupportedBlockKinds []string
}

var openAICompatibleBlockKinds = []string{"text", "thinking", "tool_use", "tool_result", "image", "audio", "video"}
