package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowedFileFormat(t *testing.T) {
	formats := []string{"pdf", ".PNG", "zip"}

	assert.True(t, AllowedFileFormat("homework.pdf", formats))
	assert.True(t, AllowedFileFormat("screenshot.png", formats))
	assert.True(t, AllowedFileFormat("ARCHIVE.ZIP", formats))
	assert.False(t, AllowedFileFormat("notes.docx", formats))
	assert.False(t, AllowedFileFormat("noextension", formats))
	assert.True(t, AllowedFileFormat("anything.xyz", nil), "empty list accepts everything")
}

func TestWithinSizeLimit(t *testing.T) {
	assert.True(t, WithinSizeLimit(100, 100))
	assert.False(t, WithinSizeLimit(101, 100))
	assert.True(t, WithinSizeLimit(1<<30, 0), "non-positive limit means unlimited")
}

func TestValidSubmissionURL(t *testing.T) {
	assert.True(t, ValidSubmissionURL("https://github.com/someone/repo"))
	assert.True(t, ValidSubmissionURL("  http://example.com/demo  "))
	assert.False(t, ValidSubmissionURL("ftp://example.com/file"))
	assert.False(t, ValidSubmissionURL("not a url"))
	assert.False(t, ValidSubmissionURL("/relative/path"))
	assert.False(t, ValidSubmissionURL(""))
}
