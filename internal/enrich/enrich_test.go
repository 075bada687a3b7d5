package enrich

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewReturnsNilWithoutAPIKey(t *testing.T) {
	t.Parallel()

	require.Nil(t, New("", "gpt-3.5-turbo", nil))
	require.NotNil(t, New("sk-test", "", nil))
}

func TestParseFAQArray(t *testing.T) {
	t.Parallel()

	content := "Here you go:\n[{\"question\":\"Do you ship?\",\"answer\":\"Yes.\",\"category\":\"Shipping\"}]\nThanks!"
	faqs, err := ParseFAQArray(content)
	require.NoError(t, err)
	require.Len(t, faqs, 1)
	require.Equal(t, "Shipping", faqs[0].Category)
}

func TestParseFAQArraySkipsIncompleteItems(t *testing.T) {
	t.Parallel()

	content := `[{"question":"Q?","answer":"A"},{"question":"no answer"},{"answer":"no question"}]`
	faqs, err := ParseFAQArray(content)
	require.NoError(t, err)
	require.Len(t, faqs, 1)
}

func TestParseFAQArrayErrors(t *testing.T) {
	t.Parallel()

	_, err := ParseFAQArray("no array here")
	require.Error(t, err)

	_, err = ParseFAQArray("[{broken json]")
	require.Error(t, err)
}

func TestExtractBulletPoints(t *testing.T) {
	t.Parallel()

	text := "Intro paragraph.\n- First advantage\n* Second advantage\n3. Third advantage\nClosing."
	points := ExtractBulletPoints(text)
	require.Equal(t, []string{"First advantage", "Second advantage", "Third advantage"}, points)
}

func TestExtractBulletPointsFallback(t *testing.T) {
	t.Parallel()

	points := ExtractBulletPoints("Plain prose with no lists at all.")
	require.Equal(t, []string{"No specific advantages mentioned"}, points)
}
