package payload

// Message is one entry of the conversation sent to an endpoint. The wire
// encoding is up to the client implementation; this is the neutral form the
// dispatcher and compressor operate on.
type Message struct {
	Role  string
	Parts []Part
}

type PartType string

const (
	PartText  PartType = "text"
	PartImage PartType = "image"
)

type Part struct {
	Type PartType

	// Set when Type is PartText.
	Text string

	// Set when Type is PartImage. ImageFormat is the declared format of the
	// base64 data, already negotiated against the endpoint's supported formats.
	ImageBase64 string
	ImageFormat string
}

// MessageBuilder assembles a single message part by part.
type MessageBuilder struct {
	role  string
	parts []Part
}

func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{role: "user"}
}

func (b *MessageBuilder) SetRole(role string) *MessageBuilder {
	b.role = role
	return b
}

func (b *MessageBuilder) AddText(text string) *MessageBuilder {
	b.parts = append(b.parts, Part{Type: PartText, Text: text})
	return b
}

// AddImage attaches a base64-encoded image. When the endpoint does not list
// the given format as supported, the image is declared as the endpoint's
// first supported format instead; most OpenAI-compatible servers sniff the
// actual encoding from the data and only use the declared format as a hint.
func (b *MessageBuilder) AddImage(imageBase64 string, imageFormat string, supportedFormats []string) *MessageBuilder {
	format := normalizeImageFormat(imageFormat)
	if len(supportedFormats) > 0 && !containsFormat(supportedFormats, format) {
		format = normalizeImageFormat(supportedFormats[0])
	}
	b.parts = append(b.parts, Part{Type: PartImage, ImageBase64: imageBase64, ImageFormat: format})
	return b
}

func (b *MessageBuilder) Build() Message {
	return Message{Role: b.role, Parts: b.parts}
}

func normalizeImageFormat(format string) string {
	if format == "jpg" {
		return "jpeg"
	}
	return format
}

func containsFormat(formats []string, format string) bool {
	for _, f := range formats {
		if normalizeImageFormat(f) == format {
			return true
		}
	}
	return false
}
