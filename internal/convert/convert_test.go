package convert

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metamechanic/notesync/internal/model"
)

func TestConvert_BulletsToParagraphs(t *testing.T) {
	t.Run("one paragraph per top-level bullet", func(t *testing.T) {
		got, err := Convert("- Born in 1912.\n- Broke Enigma.", model.FormatBullets, model.FormatParagraphs)
		require.NoError(t, err)
		assert.Equal(t, "Born in 1912.\n\nBroke Enigma.", got)
	})

	t.Run("nested bullets flatten into the parent", func(t *testing.T) {
		got, err := Convert("- Born in 1912\n  - in London\n- Died 1954", model.FormatBullets, model.FormatParagraphs)
		require.NoError(t, err)
		assert.Equal(t, "Born in 1912 in London\n\nDied 1954", got)
	})

	t.Run("empty bullets are dropped", func(t *testing.T) {
		got, err := Convert("- a\n- \n- b", model.FormatBullets, model.FormatParagraphs)
		require.NoError(t, err)
		assert.Equal(t, "a\n\nb", got)
	})
}

func TestConvert_ParagraphsToBullets(t *testing.T) {
	t.Run("one bullet per paragraph", func(t *testing.T) {
		got, err := Convert("First paragraph.\n\nSecond paragraph.", model.FormatParagraphs, model.FormatBullets)
		require.NoError(t, err)
		assert.Equal(t, "- First paragraph.\n- Second paragraph.", got)
	})

	t.Run("multi-sentence paragraphs stay one bullet", func(t *testing.T) {
		got, err := Convert("One. Two. Three.", model.FormatParagraphs, model.FormatBullets)
		require.NoError(t, err)
		assert.Equal(t, "- One. Two. Three.", got)
	})

	t.Run("wrapped lines join", func(t *testing.T) {
		got, err := Convert("A paragraph\nthat wraps.", model.FormatParagraphs, model.FormatBullets)
		require.NoError(t, err)
		assert.Equal(t, "- A paragraph that wraps.", got)
	})
}

func TestConvert_RoundTrip(t *testing.T) {
	t.Run("flat bullets survive a bullets-paragraphs round trip", func(t *testing.T) {
		original := "- Born in 1912.\n- Broke Enigma at Bletchley.\n- Died in 1954."

		paragraphs, err := Convert(original, model.FormatBullets, model.FormatParagraphs)
		require.NoError(t, err)
		back, err := Convert(paragraphs, model.FormatParagraphs, model.FormatBullets)
		require.NoError(t, err)

		assert.Equal(t, original, back)
	})

	t.Run("nested bullets flatten one way", func(t *testing.T) {
		original := "- parent\n  - child"

		paragraphs, err := Convert(original, model.FormatBullets, model.FormatParagraphs)
		require.NoError(t, err)
		back, err := Convert(paragraphs, model.FormatParagraphs, model.FormatBullets)
		require.NoError(t, err)

		assert.Equal(t, "- parent child", back)
		assert.NotEqual(t, original, back)
	})

	t.Run("bullets and blockquotes map line for line", func(t *testing.T) {
		original := "- first\n- second"

		quotes, err := Convert(original, model.FormatBullets, model.FormatBlockquotes)
		require.NoError(t, err)
		assert.Equal(t, "> first\n> second", quotes)

		back, err := Convert(quotes, model.FormatBlockquotes, model.FormatBullets)
		require.NoError(t, err)
		assert.Equal(t, original, back)
	})
}

func TestConvert_Blockquotes(t *testing.T) {
	t.Run("paragraphs to blockquotes", func(t *testing.T) {
		got, err := Convert("First.\n\nSecond.", model.FormatParagraphs, model.FormatBlockquotes)
		require.NoError(t, err)
		assert.Equal(t, "> First.\n>\n> Second.", got)
	})

	t.Run("blockquotes to paragraphs", func(t *testing.T) {
		got, err := Convert("> First.\n>\n> Second.", model.FormatBlockquotes, model.FormatParagraphs)
		require.NoError(t, err)
		assert.Equal(t, "First.\n\nSecond.", got)
	})
}

func TestConvert_Identity(t *testing.T) {
	content := "- unchanged"
	got, err := Convert(content, model.FormatBullets, model.FormatBullets)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestConvert_CodeIsOpaque(t *testing.T) {
	for _, other := range []model.Format{model.FormatBullets, model.FormatParagraphs, model.FormatBlockquotes} {
		t.Run("code to "+other.String(), func(t *testing.T) {
			_, err := Convert("```go\nfmt.Println()\n```", model.FormatCode, other)
			var convErr *UnsupportedConversionError
			require.Error(t, err)
			assert.True(t, errors.As(err, &convErr))
		})

		t.Run(other.String()+" to code", func(t *testing.T) {
			_, err := Convert("- x", other, model.FormatCode)
			require.Error(t, err)
		})
	}

	t.Run("code to code passes through", func(t *testing.T) {
		content := "```go\nfmt.Println()\n```"
		got, err := Convert(content, model.FormatCode, model.FormatCode)
		require.NoError(t, err)
		assert.Equal(t, content, got)
	})
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported(model.FormatBullets, model.FormatParagraphs))
	assert.True(t, Supported(model.FormatCode, model.FormatCode))
	assert.False(t, Supported(model.FormatCode, model.FormatBullets))
}
