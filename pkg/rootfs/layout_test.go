package rootfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLayout_Path(t *testing.T) {
	var cases = []struct {
		root string
		rel  string
		out  string
	}{
		{"/", "etc/fpkg.conf", "/etc/fpkg.conf"},
		{"/mnt/root/", "usr/bin/foo", "/mnt/root/usr/bin/foo"},
		{"/mnt/root", "/usr/bin/foo", "/mnt/root/usr/bin/foo"},
		{"/mnt/root", "../../etc/passwd", "/mnt/root/etc/passwd"},
		{"", "etc/hosts", "/etc/hosts"},
	}

	for _, tt := range cases {
		t.Run(tt.rel, func(t *testing.T) {
			assert.EqualValues(t, tt.out, NewLayout(tt.root).Path(tt.rel))
		})
	}
}

func TestLayout_Paths(t *testing.T) {
	l := NewLayout("/srv/root")
	assert.EqualValues(t, "/srv/root/var/fpkg/lockfile", l.Lockfile())
	assert.EqualValues(t, "/srv/root/var/fpkg/pkg", l.PackageStore())
	assert.EqualValues(t, "/srv/root/var/fpkg/repos/core", l.RepoDir("core"))
	assert.EqualValues(t, "/srv/root/var/tmp/fpkg", l.Staging())
	assert.EqualValues(t, "/srv/root/usr/lib/fpkg/hookexec", l.HookExec())
	assert.EqualValues(t, "/srv/root/etc/fpkg/config.json", l.Config())
}

func TestIsHookScript(t *testing.T) {
	assert.True(t, IsHookScript("usr/lib/fpkg/hooks/foo.sh"))
	assert.True(t, IsHookScript("/root/usr/lib/fpkg/hooks/bar"))
	assert.False(t, IsHookScript("usr/lib/fpkg/hookexec"))
	assert.False(t, IsHookScript("etc/foo.conf"))
}
