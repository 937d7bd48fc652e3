package target

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/tom-alerce/internal/app"
	"github.com/tphakala/tom-alerce/internal/conf"
	"github.com/tphakala/tom-alerce/internal/datastore"
	"github.com/tphakala/tom-alerce/internal/errors"
)

func setup(t *testing.T, withObservatory bool) (*conf.Settings, datastore.Interface, *datastore.Target) {
	t.Helper()

	settings := &conf.Settings{}
	settings.Alerce.APIURL = "https://api.alerce.test"
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "tom.db")
	if withObservatory {
		settings.Observatory = conf.ObservatorySettings{
			Name:         "Cerro Pachon",
			Latitude:     -30.2407,
			Longitude:    -70.7366,
			Elevation:    2715,
			AirmassLimit: 2.0,
		}
	}

	ds, err := datastore.New(settings)
	require.NoError(t, err)
	require.NoError(t, ds.Open())
	t.Cleanup(func() { _ = ds.Close() })

	target := &datastore.Target{
		Name:  "ZTF21aaaaaaa",
		Type:  datastore.TargetSidereal,
		RA:    150,
		Dec:   -30,
		Epoch: datastore.DefaultEpoch,
	}
	require.NoError(t, ds.CreateTarget(t.Context(), target))
	return settings, ds, target
}

func run(t *testing.T, settings *conf.Settings, ds datastore.Interface, args ...string) (string, error) {
	t.Helper()

	cmd := Command(settings, app.WithStore(ds))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestList(t *testing.T) {
	t.Parallel()

	settings, ds, _ := setup(t, false)
	out, err := run(t, settings, ds, "list")
	require.NoError(t, err)

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "ZTF21aaaaaaa")
	assert.Contains(t, out, "10:00:00.000")
	assert.Contains(t, out, "-30:00:00.000")

	out, err = run(t, settings, ds, "list", "--offset", "1")
	require.NoError(t, err)
	assert.NotContains(t, out, "ZTF21aaaaaaa")
}

func TestVisibility(t *testing.T) {
	t.Parallel()

	settings, ds, target := setup(t, true)
	out, err := run(t, settings, ds, "visibility", "1", "--date", "2021-04-06")
	require.NoError(t, err)
	require.Equal(t, uint(1), target.ID)

	assert.Contains(t, out, "ZTF21aaaaaaa from Cerro Pachon, night 2021-04-06")
	assert.Contains(t, out, "AIRMASS")
	assert.Contains(t, out, "Best airmass 1.")
}

func TestVisibilityErrors(t *testing.T) {
	t.Parallel()

	t.Run("no observatory", func(t *testing.T) {
		t.Parallel()
		settings, ds, _ := setup(t, false)
		_, err := run(t, settings, ds, "visibility", "1")
		require.Error(t, err)
		assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
	})

	t.Run("bad id", func(t *testing.T) {
		t.Parallel()
		settings, ds, _ := setup(t, true)
		_, err := run(t, settings, ds, "visibility", "abc")
		require.Error(t, err)
		assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
	})

	t.Run("bad date", func(t *testing.T) {
		t.Parallel()
		settings, ds, _ := setup(t, true)
		_, err := run(t, settings, ds, "visibility", "1", "--date", "06/04/2021")
		require.Error(t, err)
		assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
	})

	t.Run("unknown target", func(t *testing.T) {
		t.Parallel()
		settings, ds, _ := setup(t, true)
		_, err := run(t, settings, ds, "visibility", "99")
		require.Error(t, err)
		assert.True(t, errors.IsNotFound(err))
	})
}
