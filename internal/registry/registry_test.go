package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/vnc-client/internal/registry"
	"github.com/fivetwenty-io/vnc-client/pkg/vnc"
)

func TestRegistry_Lookup(t *testing.T) {
	t.Parallel()

	r := registry.Default()

	vn, err := r.Lookup("virtual-network")
	require.NoError(t, err)
	assert.Equal(t, "virtual-network", vn.Name)
	assert.Contains(t, vn.ParentTypes, "project")

	_, err = r.Lookup("no-such-type")
	require.ErrorIs(t, err, vnc.ErrResourceTypeUnknown)
}

func TestRegistry_LaterDescriptionWins(t *testing.T) {
	t.Parallel()

	r := registry.New([]vnc.TypeDescription{
		{Name: "widget", PropFields: []string{"a"}},
		{Name: "widget", PropFields: []string{"b"}},
		{Name: "gadget"},
	})

	w, err := r.Lookup("widget")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, w.PropFields)
	assert.Equal(t, []string{"gadget", "widget"}, r.Names())
}
