//go:build unit

package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	saved := info
	defer func() { info = saved }()

	info = GitInfo{Commit: "0123456789abcdef0123", Tag: "v0.3.0"}
	assert.Equal(t, "v0.3.0 (0123456789ab)", String())

	info.Dirty = true
	assert.True(t, strings.HasSuffix(String(), "-dirty"))
}

func TestGetGitInfo(t *testing.T) {
	got := GetGitInfo()
	assert.NotEmpty(t, got.Commit)
	assert.NotEmpty(t, got.Tag)
}
