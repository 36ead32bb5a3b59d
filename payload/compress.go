package payload

// Compressor shrinks an oversized message list after an endpoint rejected the
// payload. The dispatcher invokes it at most once per request, however many
// endpoints end up being tried.
type Compressor interface {
	Compress(messages []Message) []Message
}

const (
	// Per-part text budget applied by the default compressor.
	defaultMaxPartLength = 4096

	elisionMarker = "\n...[truncated]...\n"
)

// TruncatingCompressor bounds every text part to MaxPartLength runes, keeping
// the head and the tail of the text around an elision marker. Image parts are
// dropped entirely; they dominate payload size and cannot be meaningfully
// truncated.
type TruncatingCompressor struct {
	MaxPartLength int
}

func NewTruncatingCompressor() *TruncatingCompressor {
	return &TruncatingCompressor{MaxPartLength: defaultMaxPartLength}
}

func (c *TruncatingCompressor) Compress(messages []Message) []Message {
	maxLength := c.MaxPartLength
	if maxLength <= 0 {
		maxLength = defaultMaxPartLength
	}

	compressed := make([]Message, 0, len(messages))
	for _, message := range messages {
		parts := make([]Part, 0, len(message.Parts))
		for _, part := range message.Parts {
			if part.Type == PartImage {
				continue
			}
			part.Text = truncateMiddle(part.Text, maxLength)
			parts = append(parts, part)
		}
		if len(parts) == 0 {
			continue
		}
		compressed = append(compressed, Message{Role: message.Role, Parts: parts})
	}
	return compressed
}

func truncateMiddle(text string, maxLength int) string {
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	half := maxLength / 2
	return string(runes[:half]) + elisionMarker + string(runes[len(runes)-half:])
}
