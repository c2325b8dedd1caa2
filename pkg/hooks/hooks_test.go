package hooks

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Felis-Linux/fpkg/pkg/rootfs"
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func install(t *testing.T, layout rootfs.Layout, script string) {
	require.NoError(t, os.MkdirAll(filepath.Dir(layout.HookExec()), 0755))
	require.NoError(t, os.WriteFile(layout.HookExec(), []byte(script), 0755))
}

func TestRunner_Run(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))

	t.Run("missing executable is skipped", func(t *testing.T) {
		layout := rootfs.NewLayout(t.TempDir())
		assert.NoError(t, NewRunner(layout, nil, nil).Run(ctx, PreInstall))
	})
	t.Run("executable receives root and phase", func(t *testing.T) {
		layout := rootfs.NewLayout(t.TempDir())
		install(t, layout, "#!/bin/sh\necho \"$1 $2\"\n")

		var stdout bytes.Buffer
		r := NewRunner(layout, &stdout, nil)
		for _, phase := range []Phase{PreInstall, PostInstall, PreRemove, PostRemove} {
			require.NoError(t, r.Run(ctx, phase))
		}
		root := layout.Root
		assert.EqualValues(t, root+" PRE-I\n"+root+" POST-I\n"+root+" PRE-R\n"+root+" POST-R\n", stdout.String())
	})
	t.Run("failure is reported", func(t *testing.T) {
		layout := rootfs.NewLayout(t.TempDir())
		install(t, layout, "#!/bin/sh\necho oops >&2\nexit 3\n")

		var stderr bytes.Buffer
		err := NewRunner(layout, nil, &stderr).Run(ctx, PostInstall)
		assert.Error(t, err)
		assert.EqualValues(t, "oops\n", stderr.String())
	})
}
