package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

func TestDefault_MatchesStandardLayout(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "app", cfg.Paths.Src)
	assert.Equal(t, "dist", cfg.Paths.Dest)
	assert.Equal(t, "sass", cfg.Paths.Sass)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "app", cfg.Server.BaseDir)
	assert.Equal(t, "expanded", cfg.CSS.Style)
	assert.True(t, Enabled(cfg.CSS.Minify))
	assert.True(t, Enabled(cfg.CSS.Autoprefix))
	assert.Equal(t, DefaultPostCSSCommand, cfg.CSS.PostCSSCommand)
	assert.True(t, Enabled(cfg.Server.LiveReload))
	assert.Equal(t, 300*time.Millisecond, cfg.Watch.Debounce)

	require.Len(t, cfg.Watch.Bindings, 3)
	assert.Equal(t, BindingConfig{Name: "styles", Root: "app/sass", Patterns: []string{"**/*"}, Task: "css"}, cfg.Watch.Bindings[0])
	assert.Equal(t, "js", cfg.Watch.Bindings[1].Task)
	assert.Equal(t, "app/images", cfg.Watch.Bindings[2].Root)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), DefaultFile))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesAndEnvExpansion(t *testing.T) {
	t.Setenv("ASSETPIPE_TEST_PORT", "4000")
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(`
paths:
  src: site
  dest: public
css:
  postcss_command: "npx postcss --use autoprefixer"
  minify: false
server:
  port: ${ASSETPIPE_TEST_PORT}
watch:
  debounce: 50ms
  bindings:
    - root: site/sass
      task: css
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "site", cfg.Paths.Src)
	assert.Equal(t, "site", cfg.Server.BaseDir, "server base dir follows the source dir")
	assert.Equal(t, 4000, cfg.Server.Port)
	assert.False(t, Enabled(cfg.CSS.Minify))
	assert.Equal(t, "npx postcss --use autoprefixer", cfg.CSS.PostCSSCommand)
	assert.Equal(t, 50*time.Millisecond, cfg.Watch.Debounce)
	require.Len(t, cfg.Watch.Bindings, 1)
	assert.Equal(t, "css", cfg.Watch.Bindings[0].Name)
	assert.Equal(t, []string{"**/*"}, cfg.Watch.Bindings[0].Patterns)
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("pahts:\n  src: app\n"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestParse_Validation(t *testing.T) {
	cases := map[string]string{
		"dest contains src":    "paths: {src: dist/app, dest: dist}",
		"dest is root":         "paths: {dest: .}",
		"same dirs":            "paths: {src: out, dest: out}",
		"bad port":             "server: {port: 70000}",
		"bad style":            "css: {style: nested}",
		"bad jpeg quality":     "images: {jpeg_quality: 101}",
		"negative workers":     "parallelism: -1",
		"binding without task": "watch: {bindings: [{root: app/sass}]}",
		"bad pattern":          "watch: {bindings: [{root: app, task: css, patterns: ['[']}]}",
		"duplicate binding":    "watch: {bindings: [{name: a, root: app, task: css}, {name: a, root: app, task: js}]}",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.Error(t, err)
			assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig), err.Error())
		})
	}
}

func TestLayout_ResolvesAgainstRoot(t *testing.T) {
	l := Default().Layout("/project")

	assert.Equal(t, "/project/app/sass", l.Src("sass"))
	assert.Equal(t, "/project/dist/css/style.css", l.Dest("css", "style.css"))
	assert.Equal(t, "/project/app/js", l.Abs("app/js"))
	assert.Equal(t, "/elsewhere", l.Abs("/elsewhere/"))
}

func TestLayoutValidate_ProtectsRootAndSources(t *testing.T) {
	root := filepath.Join(t.TempDir(), "site")

	rejected := map[string]string{
		"parent of root":      "paths: {dest: ..}",
		"grandparent of root": "paths: {dest: ../..}",
		"root via parent":     "paths: {dest: ../site}",
		"sources via parent":  "paths: {dest: ../site/app}",
	}
	for name, doc := range rejected {
		t.Run(name, func(t *testing.T) {
			cfg, err := Parse([]byte(doc))
			require.NoError(t, err, "relative paths alone cannot be judged without the root")
			err = cfg.Layout(root).Validate()
			require.Error(t, err)
			assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig), err.Error())
		})
	}

	for _, doc := range []string{"", "paths: {dest: ../public}", "paths: {dest: build/out}"} {
		cfg, err := Parse([]byte(doc))
		require.NoError(t, err)
		assert.NoError(t, cfg.Layout(root).Validate(), doc)
	}
}
