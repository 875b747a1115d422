package naming_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/fileflow/internal/naming"
)

func TestHash_Deterministic(t *testing.T) {
	content := []byte("same bytes")

	first := naming.Hash{}.Generate("a.txt", content, "txt")
	second := naming.Hash{}.Generate("b.txt", content, "txt")

	assert.Equal(t, first, second)
	assert.Regexp(t, `^[0-9a-f]{64}\.txt$`, first)
}

func TestHash_DifferentContent(t *testing.T) {
	a := naming.Hash{}.Generate("a.txt", []byte("one"), "txt")
	b := naming.Hash{}.Generate("a.txt", []byte("two"), "txt")

	assert.NotEqual(t, a, b)
}

func TestHash_KnownDigest(t *testing.T) {
	got := naming.Hash{}.Generate("", []byte(""), "bin")

	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855.bin", got)
}

func TestSlug_Shape(t *testing.T) {
	fixed := time.Unix(1700000000, 0)
	s := naming.Slug{Now: func() time.Time { return fixed }}

	names := []string{
		"My Holiday Photo!!.JPG",
		"../weird/__name__ (1).png",
		"Ünïcödé résumé.pdf",
		"...",
		"already-slugged.txt",
	}
	pattern := regexp.MustCompile(`^[a-z0-9-]+-\d+\.jpg$`)
	for _, name := range names {
		got := s.Generate(name, nil, "jpg")
		assert.Regexp(t, pattern, got, name)
	}

	assert.Equal(t, "my-holiday-photo-1700000000.jpg", s.Generate("My Holiday Photo!!.JPG", nil, "jpg"))
	assert.Equal(t, "file-1700000000.jpg", s.Generate("...", nil, "jpg"))
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello World":     "hello-world",
		"  --a--b--  ":    "a-b",
		"A_B.C":           "a-b-c",
		"":                "file",
		"résumé":          "r-sum",
		"2024 Report (v2)": "2024-report-v2",
	}
	for in, want := range cases {
		assert.Equal(t, want, naming.Slugify(in), in)
	}
}

func TestOriginal(t *testing.T) {
	assert.Equal(t, "Report Final.PDF", naming.Original{}.Generate("Report Final.PDF", []byte("x"), "pdf"))
}

func TestUUID(t *testing.T) {
	a := naming.UUID{}.Generate("x.png", nil, "png")
	b := naming.UUID{}.Generate("x.png", nil, "png")

	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^[0-9a-f-]{36}\.png$`, a)
}

func TestResolve(t *testing.T) {
	require.IsType(t, naming.Hash{}, naming.Resolve("hash"))
	require.IsType(t, naming.Slug{}, naming.Resolve(" SLUG "))
	require.IsType(t, naming.Original{}, naming.Resolve("original"))
	require.IsType(t, naming.UUID{}, naming.Resolve("uuid"))
	require.IsType(t, naming.Original{}, naming.Resolve("does-not-exist"))
	require.IsType(t, naming.Original{}, naming.Resolve(""))
}
