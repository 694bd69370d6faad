package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasHashableExt(t *testing.T) {
	exts := []string{".osu"}
	assert.True(t, hasHashableExt("folder/diff.osu", exts))
	assert.True(t, hasHashableExt("folder/DIFF.OSU", exts))
	assert.False(t, hasHashableExt("folder/bg.jpg", exts))
}

func TestRepresentativeEntryPicksLexicographicallyFirst(t *testing.T) {
	names := []string{"Set/z.osu", "Set/a.osu", "Set/bg.jpg"}
	assert.Equal(t, "Set/a.osu", representativeEntry(names, []string{".osu"}))
}

func TestRepresentativeEntryNoneQualify(t *testing.T) {
	names := []string{"Set/bg.jpg", "Set/audio.mp3"}
	assert.Equal(t, "", representativeEntry(names, []string{".osu"}))
}

func TestFingerprintArchiveFallsBackToNameHash(t *testing.T) {
	archive := newFakeArchive("My Archive", nil)
	hash, err := fingerprintArchive(archive, []string{".osu"})
	assert.NoError(t, err)
	assert.Equal(t, hashBytes([]byte("My Archive")), hash)
}

func TestFingerprintArchiveIsOrderIndependentOfInputOrder(t *testing.T) {
	a1 := newFakeArchive("set", map[string][]byte{
		"Set/b.osu": []byte("second"),
		"Set/a.osu": []byte("first"),
	})
	a2 := newFakeArchive("set", map[string][]byte{
		"Set/a.osu": []byte("first"),
		"Set/b.osu": []byte("second"),
	})

	h1, err := fingerprintArchive(a1, []string{".osu"})
	assert.NoError(t, err)
	h2, err := fingerprintArchive(a2, []string{".osu"})
	assert.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestFingerprintArchiveChangesWithContent(t *testing.T) {
	a1 := newFakeArchive("set", map[string][]byte{"Set/a.osu": []byte("first")})
	a2 := newFakeArchive("set", map[string][]byte{"Set/a.osu": []byte("different")})

	h1, _ := fingerprintArchive(a1, []string{".osu"})
	h2, _ := fingerprintArchive(a2, []string{".osu"})
	assert.NotEqual(t, h1, h2)
}

func TestShortenFilenamesStripsCommonPrefix(t *testing.T) {
	names := []string{
		"123 Artist - Title/diff.osu",
		"123 Artist - Title/bg.jpg",
		"123 Artist - Title/sub/audio.mp3",
	}
	got := shortenFilenames(names)
	assert.Equal(t, []string{"diff.osu", "bg.jpg", "sub/audio.mp3"}, got)
}

func TestShortenFilenamesNoCommonDirPrefix(t *testing.T) {
	names := []string{"diff.osu", "bg.jpg"}
	got := shortenFilenames(names)
	assert.Equal(t, names, got)
}

func TestShortenFilenamesNormalizesBackslashes(t *testing.T) {
	names := []string{`Set\diff.osu`, `Set\bg.jpg`}
	got := shortenFilenames(names)
	assert.Equal(t, []string{"diff.osu", "bg.jpg"}, got)
}

func TestEqualSortedStrings(t *testing.T) {
	assert.True(t, equalSortedStrings([]string{"b", "a"}, []string{"a", "b"}))
	assert.False(t, equalSortedStrings([]string{"a"}, []string{"a", "b"}))
}

func TestFingerprintContentsEmptyYieldsEmptyString(t *testing.T) {
	assert.Equal(t, "", fingerprintContents(map[string][]byte{"bg.jpg": []byte("x")}, []string{".osu"}))
}
