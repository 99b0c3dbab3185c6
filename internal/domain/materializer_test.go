package domain

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mouse-blink/perturb/internal/adapter"
	"github.com/mouse-blink/perturb/internal/adapter/formats"
	"github.com/mouse-blink/perturb/internal/adapter/mocks"
	"github.com/mouse-blink/perturb/internal/config"
	m "github.com/mouse-blink/perturb/internal/model"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type materializerFixture struct {
	root     string
	settings *config.Settings
	tools    *mocks.MockExperimentToolAdapter
	exp      m.Experiment
}

func newMaterializerFixture(t *testing.T) *materializerFixture {
	t.Helper()

	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	return &materializerFixture{
		root:     root,
		settings: testSettings(t, root),
		tools:    mocks.NewMockExperimentToolAdapter(t),
		exp: m.Experiment{
			Name:   "ahmax_0.2",
			Path:   filepath.Join(root, "ahmax_0.2"),
			Params: m.MapFrom("ahmax", m.Float(0.2)),
		},
	}
}

func (f *materializerFixture) materializer() Materializer {
	logger, _ := test.NewNullLogger()

	return NewMaterializer(f.tools, adapter.NewLocalExperimentFSAdapter(), formats.MetadataFile{}, f.settings, logger)
}

func TestMaterializer_Ensure(t *testing.T) {
	t.Run("clones a missing experiment from the control", func(t *testing.T) {
		f := newMaterializerFixture(t)
		f.tools.On("Clone", mock.Anything, adapter.CloneArgs{
			Source:    filepath.Join(f.root, "ctrl"),
			Target:    f.exp.Path,
			Branch:    "dev-1deg",
			NewBranch: "perturb",
		}).Return(nil).Once()

		created, err := f.materializer().Ensure(context.Background(), f.exp)

		require.NoError(t, err)
		assert.True(t, created)
	})

	t.Run("keeps an existing experiment", func(t *testing.T) {
		f := newMaterializerFixture(t)
		seedExperiment(t, f.exp.Path)

		created, err := f.materializer().Ensure(context.Background(), f.exp)

		require.NoError(t, err)
		assert.False(t, created)
		f.tools.AssertNotCalled(t, "Clone", mock.Anything, mock.Anything)
	})

	t.Run("clone failure", func(t *testing.T) {
		f := newMaterializerFixture(t)
		f.tools.On("Clone", mock.Anything, mock.Anything).Return(errors.New("exit status 1")).Once()

		_, err := f.materializer().Ensure(context.Background(), f.exp)

		assert.ErrorIs(t, err, m.ErrExternalTool)
	})
}

func TestMaterializer_LinkRestart(t *testing.T) {
	setup := func(t *testing.T) (*materializerFixture, string, string) {
		t.Helper()

		f := newMaterializerFixture(t)
		f.settings.StartFrom = "5"

		source := filepath.Join(f.root, "ctrl", "archive", "restart005")
		require.NoError(t, os.MkdirAll(source, 0o755))
		seedExperiment(t, f.exp.Path)

		return f, source, filepath.Join(f.exp.Path, "archive", "restart005")
	}

	t.Run("creates a missing link", func(t *testing.T) {
		f, source, link := setup(t)

		got, err := f.materializer().LinkRestart(f.exp)

		require.NoError(t, err)
		assert.Equal(t, source, got)

		target, err := os.Readlink(link)
		require.NoError(t, err)
		assert.Equal(t, source, target)
	})

	t.Run("keeps a valid link", func(t *testing.T) {
		f, source, link := setup(t)

		other := filepath.Join(f.root, "elsewhere")
		require.NoError(t, os.MkdirAll(other, 0o755))
		require.NoError(t, os.MkdirAll(filepath.Dir(link), 0o755))
		require.NoError(t, os.Symlink(other, link))

		got, err := f.materializer().LinkRestart(f.exp)

		require.NoError(t, err)
		assert.Equal(t, source, got)

		target, err := os.Readlink(link)
		require.NoError(t, err)
		assert.Equal(t, other, target)
	})

	t.Run("replaces a valid link when forced", func(t *testing.T) {
		f, source, link := setup(t)
		f.settings.ForceRestart = true

		other := filepath.Join(f.root, "elsewhere")
		require.NoError(t, os.MkdirAll(other, 0o755))
		require.NoError(t, os.MkdirAll(filepath.Dir(link), 0o755))
		require.NoError(t, os.Symlink(other, link))

		_, err := f.materializer().LinkRestart(f.exp)
		require.NoError(t, err)

		target, err := os.Readlink(link)
		require.NoError(t, err)
		assert.Equal(t, source, target)
	})

	t.Run("replaces a broken link", func(t *testing.T) {
		f, source, link := setup(t)

		require.NoError(t, os.MkdirAll(filepath.Dir(link), 0o755))
		require.NoError(t, os.Symlink(filepath.Join(f.root, "gone"), link))

		_, err := f.materializer().LinkRestart(f.exp)
		require.NoError(t, err)

		target, err := os.Readlink(link)
		require.NoError(t, err)
		assert.Equal(t, source, target)
	})

	t.Run("refuses to replace a real directory", func(t *testing.T) {
		f, _, link := setup(t)
		require.NoError(t, os.MkdirAll(link, 0o755))

		_, err := f.materializer().LinkRestart(f.exp)

		assert.ErrorIs(t, err, m.ErrValidation)
	})

	t.Run("cold start makes no link", func(t *testing.T) {
		f := newMaterializerFixture(t)
		seedExperiment(t, f.exp.Path)

		got, err := f.materializer().LinkRestart(f.exp)

		require.NoError(t, err)
		assert.Equal(t, config.ColdStart, got)
		assert.NoDirExists(t, filepath.Join(f.exp.Path, "archive"))
	})
}

func TestMaterializer_WriteMetadata(t *testing.T) {
	f := newMaterializerFixture(t)
	seedExperiment(t, f.exp.Path)

	err := f.materializer().WriteMetadata(f.exp, config.ColdStart)
	require.NoError(t, err)

	var doc struct {
		Description string `yaml:"description"`
		Keywords    string `yaml:"keywords"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(readFile(t, filepath.Join(f.exp.Path, "metadata.yaml"))), &doc))

	assert.Equal(t, "ctrl, perturb, ahmax", doc.Keywords)
	assert.Contains(t, doc.Description, "Control run.\n")
	assert.Contains(t, doc.Description, "based on the control run "+filepath.Join(f.root, "ctrl")+" from dev-1deg")
	assert.Contains(t, doc.Description, "but with initial condition rest.")
}
