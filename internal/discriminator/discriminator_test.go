package discriminator_test

import (
	"testing"

	"github.com/hanpama/protograph/internal/discriminator"
	"github.com/stretchr/testify/require"
)

func TestResolve_UnionOkErr(t *testing.T) {
	d, err := discriminator.Build([]string{"Ok", "Err"}, []discriminator.FieldShape{
		{Type: "Ok", Field: "value", Present: true, Required: false},
		{Type: "Err", Field: "code", Present: true, Required: true},
		{Type: "Err", Field: "message", Present: true, Required: true},
	})
	require.NoError(t, err)

	name, err := d.Resolve(discriminator.MapPresence{"code": 404, "message": "nf"})
	require.NoError(t, err)
	require.Equal(t, "Err", name)

	name, err = d.Resolve(discriminator.MapPresence{"value": "x"})
	require.NoError(t, err)
	require.Equal(t, "Ok", name)
}

func TestResolve_NoCandidates(t *testing.T) {
	d, err := discriminator.Build([]string{"Ok", "Err"}, []discriminator.FieldShape{
		{Type: "Ok", Field: "value", Present: true, Required: true},
		{Type: "Err", Field: "code", Present: true, Required: true},
	})
	require.NoError(t, err)

	_, err = d.Resolve(discriminator.MapPresence{})
	require.Error(t, err)
	var rerr *discriminator.ErrTypeResolutionFailed
	require.ErrorAs(t, err, &rerr)
}

func TestResolve_TieBreakLowestIndex(t *testing.T) {
	// Neither field present/required anywhere -> never narrows -> first type wins.
	d, err := discriminator.Build([]string{"A", "B"}, nil)
	require.NoError(t, err)
	name, err := d.Resolve(discriminator.MapPresence{})
	require.NoError(t, err)
	require.Equal(t, "A", name)
}

func TestResolveList(t *testing.T) {
	d, err := discriminator.Build([]string{"Ok", "Err"}, []discriminator.FieldShape{
		{Type: "Ok", Field: "value", Present: true},
		{Type: "Err", Field: "code", Present: true, Required: true},
	})
	require.NoError(t, err)
	names, err := d.ResolveList([]discriminator.ValuePresence{
		discriminator.MapPresence{"value": "x"},
		discriminator.MapPresence{"code": 1},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"Ok", "Err"}, names)
}
