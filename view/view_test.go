package view

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assetTree(t *testing.T, manifest string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "templates"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "static", "js"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "templates", "layout.html"), []byte(`{{ block "content" . }}{{ end }}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "static", "js", "app.js"), []byte("console.log(1)"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "static", "manifest.json"), []byte(manifest), 0o644))

	prevBase, prevDev := detectBase(), devMode
	SetBaseDir(filepath.Join(root, "templates"))
	t.Cleanup(func() {
		SetBaseDir(prevBase)
		SetDev(prevDev)
	})
	return root
}

func TestResolveAsset_DevModeConcurrent(t *testing.T) {
	root := assetTree(t, `{"css/app.css": "css/app.3f2a.css"}`)
	SetDev(true)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, "/static/css/app.3f2a.css", resolveAsset("css/app.css"))
			assert.True(t, strings.HasPrefix(resolveAsset("js/app.js"), "/static/js/app.js?v="))
		}()
	}
	wg.Wait()

	// dev mode picks up a rebuilt manifest without a restart
	require.NoError(t, os.WriteFile(filepath.Join(root, "static", "manifest.json"), []byte(`{"css/app.css": "css/app.9c1d.css"}`), 0o644))
	assert.Equal(t, "/static/css/app.9c1d.css", resolveAsset("css/app.css"))
}

func TestVersionedAsset(t *testing.T) {
	assetTree(t, `{}`)
	assert.Equal(t, "https://cdn.example.org/x.js", versionedAsset("https://cdn.example.org/x.js"))
	assert.Equal(t, "/static/missing.css", versionedAsset("missing.css"))
	v := versionedAsset("js/app.js")
	assert.Equal(t, v, versionedAsset("js/app.js"), "hash is stable")
}
