package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSocialExtractsHandles(t *testing.T) {
	t.Parallel()

	doc := mustParseDoc(`<html><body>
		<a href="https://instagram.com/mybrand">ig</a>
		<a href="https://www.facebook.com/mybrandofficial/">fb</a>
		<a href="https://tiktok.com/@mybrand">tt</a>
		<a href="https://youtube.com/c/mybrandtv">yt</a>
		<a href="https://linkedin.com/company/mybrand-inc">li</a>
	</body></html>`)

	handles := NewSocialExtractor().Social(doc)

	require.Equal(t, "mybrand", handles.Instagram)
	require.Equal(t, "mybrandofficial", handles.Facebook)
	require.Equal(t, "mybrand", handles.TikTok)
	require.Equal(t, "mybrandtv", handles.YouTube)
	require.Equal(t, "mybrand-inc", handles.LinkedIn)
	require.Empty(t, handles.Twitter)
	require.Empty(t, handles.Pinterest)
	require.Equal(t, 5, handles.Count())
}

func TestSocialFirstMatchPerPlatformWins(t *testing.T) {
	t.Parallel()

	doc := mustParseDoc(`<html><body>
		<a href="https://instagram.com/first">one</a>
		<a href="https://instagram.com/second">two</a>
	</body></html>`)

	handles := NewSocialExtractor().Social(doc)
	require.Equal(t, "first", handles.Instagram)
}

func TestSocialIgnoresUnparsableLinks(t *testing.T) {
	t.Parallel()

	doc := mustParseDoc(`<html><body>
		<a href="/pages/instagram-feed">local instagram page</a>
	</body></html>`)

	handles := NewSocialExtractor().Social(doc)
	require.Empty(t, handles.Instagram)
}

func TestSocialQueryStringStripped(t *testing.T) {
	t.Parallel()

	doc := mustParseDoc(`<html><body>
		<a href="https://twitter.com/mybrand?ref=footer">tw</a>
	</body></html>`)

	handles := NewSocialExtractor().Social(doc)
	require.Equal(t, "mybrand", handles.Twitter)
}
