package payload

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageBuilder(t *testing.T) {
	t.Run("defaults to the user role", func(t *testing.T) {
		message := NewMessageBuilder().AddText("hi").Build()
		assert.Equal(t, "user", message.Role)
		require.Len(t, message.Parts, 1)
		assert.Equal(t, PartText, message.Parts[0].Type)
		assert.Equal(t, "hi", message.Parts[0].Text)
	})

	t.Run("role can be overridden", func(t *testing.T) {
		message := NewMessageBuilder().SetRole("system").AddText("rules").Build()
		assert.Equal(t, "system", message.Role)
	})

	t.Run("keeps a supported image format", func(t *testing.T) {
		message := NewMessageBuilder().AddImage("ZGF0YQ==", "png", []string{"png", "jpeg"}).Build()
		require.Len(t, message.Parts, 1)
		assert.Equal(t, "png", message.Parts[0].ImageFormat)
	})

	t.Run("falls back to the first supported format", func(t *testing.T) {
		message := NewMessageBuilder().AddImage("ZGF0YQ==", "webp", []string{"png", "jpeg"}).Build()
		assert.Equal(t, "png", message.Parts[0].ImageFormat)
	})

	t.Run("normalizes jpg to jpeg", func(t *testing.T) {
		message := NewMessageBuilder().AddImage("ZGF0YQ==", "jpg", []string{"jpeg"}).Build()
		assert.Equal(t, "jpeg", message.Parts[0].ImageFormat)
	})

	t.Run("no format list keeps the declared format", func(t *testing.T) {
		message := NewMessageBuilder().AddImage("ZGF0YQ==", "webp", nil).Build()
		assert.Equal(t, "webp", message.Parts[0].ImageFormat)
	})
}

func TestTruncatingCompressor(t *testing.T) {
	t.Run("short text passes through", func(t *testing.T) {
		compressor := &TruncatingCompressor{MaxPartLength: 100}
		messages := []Message{NewMessageBuilder().AddText("short").Build()}

		compressed := compressor.Compress(messages)
		require.Len(t, compressed, 1)
		assert.Equal(t, "short", compressed[0].Parts[0].Text)
	})

	t.Run("long text keeps head and tail", func(t *testing.T) {
		compressor := &TruncatingCompressor{MaxPartLength: 10}
		long := strings.Repeat("a", 50) + strings.Repeat("z", 50)
		messages := []Message{NewMessageBuilder().AddText(long).Build()}

		compressed := compressor.Compress(messages)
		text := compressed[0].Parts[0].Text
		assert.True(t, strings.HasPrefix(text, "aaaaa"))
		assert.True(t, strings.HasSuffix(text, "zzzzz"))
		assert.Contains(t, text, "[truncated]")
		assert.Less(t, len(text), len(long))
	})

	t.Run("drops image parts", func(t *testing.T) {
		compressor := NewTruncatingCompressor()
		messages := []Message{
			NewMessageBuilder().AddText("keep me").AddImage("aW1n", "png", nil).Build(),
		}

		compressed := compressor.Compress(messages)
		require.Len(t, compressed, 1)
		require.Len(t, compressed[0].Parts, 1)
		assert.Equal(t, PartText, compressed[0].Parts[0].Type)
	})

	t.Run("drops messages left without parts", func(t *testing.T) {
		compressor := NewTruncatingCompressor()
		messages := []Message{
			NewMessageBuilder().AddImage("aW1n", "png", nil).Build(),
			NewMessageBuilder().AddText("survivor").Build(),
		}

		compressed := compressor.Compress(messages)
		require.Len(t, compressed, 1)
		assert.Equal(t, "survivor", compressed[0].Parts[0].Text)
	})

	t.Run("does not mutate the original messages", func(t *testing.T) {
		compressor := &TruncatingCompressor{MaxPartLength: 4}
		original := NewMessageBuilder().AddText("abcdefghij").Build()

		compressor.Compress([]Message{original})
		assert.Equal(t, "abcdefghij", original.Parts[0].Text)
	})
}
