package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBody_ConvertsMarkdownToMrkdwn(t *testing.T) {
	testcases := []struct {
		name     string
		in       string
		expected string
	}{
		{
			name:     "bold and italic",
			in:       "this is **important** and _subtle_",
			expected: "this is *important* and _subtle_",
		},
		{
			name:     "heading",
			in:       "# Summary",
			expected: "*Summary*",
		},
		{
			name:     "link",
			in:       "see [the docs](https://example.com/docs)",
			expected: "see <https://example.com/docs|the docs>",
		},
		{
			name:     "inline code",
			in:       "run `make test` locally",
			expected: "run `make test` locally",
		},
		{
			name:     "strikethrough",
			in:       "~~removed~~",
			expected: "~removed~",
		},
		{
			name:     "unordered list",
			in:       "- first\n- second",
			expected: "• first\n• second",
		},
		{
			name:     "ordered list",
			in:       "1. first\n2. second",
			expected: "1. first\n2. second",
		},
		{
			name:     "escapes mrkdwn control characters",
			in:       "a < b && b > c",
			expected: "a &lt; b &amp;&amp; b &gt; c",
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Body(tc.in))
		})
	}
}

func TestBody_FencedCodeBlock(t *testing.T) {
	got := Body("```\nfunc main() {}\n```")
	assert.Equal(t, "```\nfunc main() {}\n```", got)
}

func TestBody_ConvertsImgTagsToLinks(t *testing.T) {
	got := Body(`before <img src="https://example.com/shot.png" alt="screenshot"> after`)
	assert.Equal(t, "before <https://example.com/shot.png|screenshot> after", got)
}

func TestBody_ImgTagWithoutAltGetsDefaultLabel(t *testing.T) {
	got := Body(`<img src="https://example.com/shot.png">`)
	assert.Equal(t, "<https://example.com/shot.png|image>", got)
}

func TestBody_LimitsEmbeddedImages(t *testing.T) {
	in := strings.Join([]string{
		`<img src="https://example.com/1.png" alt="one">`,
		`<img src="https://example.com/2.png" alt="two">`,
		`<img src="https://example.com/3.png" alt="three">`,
		`<img src="https://example.com/4.png" alt="four">`,
	}, " ")

	got := Body(in)
	assert.Contains(t, got, "example.com/1.png")
	assert.Contains(t, got, "example.com/3.png")
	assert.NotContains(t, got, "example.com/4.png")
}

func TestBody_StripsOtherHTML(t *testing.T) {
	got := Body(`<details><summary>more</summary>hidden</details>`)
	assert.NotContains(t, got, "<details>")
	assert.Contains(t, got, "hidden")
}

func TestBody_TruncatesLongBodies(t *testing.T) {
	got := Body(strings.Repeat("a", maxBodyLength+500))
	assert.LessOrEqual(t, len([]rune(got)), maxBodyLength)
	assert.True(t, strings.HasSuffix(got, "…"))
}

func TestBody_Empty(t *testing.T) {
	assert.Empty(t, Body(""))
}

func TestBody_IsDeterministic(t *testing.T) {
	in := "# Title\n\nsome **body** with a [link](https://example.com)\n\n- a\n- b"
	assert.Equal(t, Body(in), Body(in))
}
