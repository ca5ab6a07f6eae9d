package filter

import (
	"image"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/imgproc"
)

func TestDefaultRegistryNames(t *testing.T) {
	names := DefaultRegistry().Names()
	assert.True(t, slices.IsSorted(names))
	for _, want := range []string{"gauss", "erosion", "sobel", "snn", "equalize", "colormap"} {
		assert.Contains(t, names, want)
	}
	assert.Len(t, names, len(builtins))
}

func TestRegistryLookup(t *testing.T) {
	r := DefaultRegistry()
	for _, name := range []string{"gauss", "GAUSS", " Gauss ", "Sobel"} {
		d, ok := r.Lookup(name)
		require.True(t, ok, "Lookup(%q)", name)
		assert.Equal(t, strings.ToLower(strings.TrimSpace(name)), d.Name)
	}
	_, ok := r.Lookup("nope")
	assert.False(t, ok)
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.Names())

	run := func(*imgproc.Engine, Values) error { return nil }
	require.NoError(t, r.Register(Descriptor{Name: "Invert", Run: run}))
	assert.Error(t, r.Register(Descriptor{Name: "invert", Run: run}), "case-folded duplicate")
	assert.Error(t, r.Register(Descriptor{Name: "", Run: run}))
	assert.Error(t, r.Register(Descriptor{Name: "other"}))
	assert.Equal(t, []string{"Invert"}, r.Names())
}

func TestParseValues(t *testing.T) {
	r := DefaultRegistry()
	gauss, _ := r.Lookup("gauss")
	conv, _ := r.Lookup("conv1d")
	snn, _ := r.Lookup("snn")

	tests := []struct {
		name string
		desc Descriptor
		text string
		want Values
	}{
		{"defaults", gauss, "", Values{"sigma": {1}}},
		{"positional", gauss, "2.5", Values{"sigma": {2.5}}},
		{"keyed", gauss, "Sigma=3", Values{"sigma": {3}}},
		{"clamped", gauss, "sigma=50", Values{"sigma": {20}}},
		{"array", conv, "kernel=1 2 1,type=1", Values{"kernel": {1, 2, 1}, "type": {1}}},
		{"array positional", conv, "1|4|6|4|1", Values{"kernel": {1, 4, 6, 4, 1}, "type": {3}}},
		{"int truncated", snn, "5.7, count=2", Values{"size": {5}, "count": {2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseValues(tt.desc, tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseValuesErrors(t *testing.T) {
	r := DefaultRegistry()
	gauss, _ := r.Lookup("gauss")
	for _, text := range []string{"radius=2", "1,2", "sigma=abc", "kernel=1"} {
		_, err := ParseValues(gauss, text)
		assert.ErrorIs(t, err, imgproc.ErrInvalidParameter, "ParseValues(gauss, %q)", text)
	}
	bools := Descriptor{Name: "b", Params: []Param{{Name: "on", Kind: Bool}}}
	v, err := ParseValues(bools, "true")
	require.NoError(t, err)
	assert.True(t, v.Bool("on"))
	_, err = ParseValues(bools, "maybe")
	assert.ErrorIs(t, err, imgproc.ErrInvalidParameter)
}

func TestRegistryApply(t *testing.T) {
	r := DefaultRegistry()
	e := load(t, pattern(8, 8))

	err := r.Apply(e, "does-not-exist", nil)
	assert.ErrorIs(t, err, ErrUnknownFilter)

	require.NoError(t, r.Apply(e, "Erosion", Values{"size": {0}}))
	_, ok := e.Cache().Lookup(imgproc.ProgramKey{Op: imgproc.OpMorph, Spec: imgproc.Specialization{KernelSize: DefaultMorphSize, Compare: imgproc.CompareMin}})
	assert.True(t, ok, "size 0 uses the default structuring element")

	require.NoError(t, r.Apply(e, "gauss", Values{"sigma": {2}}))
	_, ok = e.Cache().Lookup(imgproc.ProgramKey{Op: imgproc.OpGauss, Spec: imgproc.Specialization{KernelSize: 13}})
	assert.True(t, ok)
}

func TestRegistryApplyAll(t *testing.T) {
	r := DefaultRegistry()
	for _, name := range r.Names() {
		t.Run(name, func(t *testing.T) {
			e := load(t, pattern(8, 8))
			err := r.Apply(e, name, nil)
			if name == "colormap" {
				assert.ErrorIs(t, err, imgproc.ErrInvalidParameter, "empty table")
				return
			}
			require.NoError(t, err)
			_, err = e.ReadPixels(image.Rectangle{})
			require.NoError(t, err)
		})
	}
}
