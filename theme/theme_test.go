package theme

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLookup(t *testing.T) {
	p := &Palette{Colors: []RGB{{0, 0, 0}, {200, 100, 50}}}
	for _, tc := range []struct {
		norm float64
		want RGB
	}{
		{-1, RGB{0, 0, 0}},
		{0.5, RGB{100, 50, 25}},
		{2, RGB{200, 100, 50}},
	} {
		if got := p.Lookup(tc.norm); got != tc.want {
			t.Errorf("Lookup(%v) = %v, want %v", tc.norm, got, tc.want)
		}
	}
}

func TestLoadGPL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.gpl")
	data := "GIMP Palette\nName: test\nColumns: 2\n# comment\n255 0 0\tred\n0 255 0 green\n300 0 0 bad\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadGPL(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "test" || len(p.Colors) != 2 || p.Colors[1] != (RGB{0, 255, 0}) {
		t.Errorf("palette = %+v", p)
	}

	empty := filepath.Join(t.TempDir(), "e.gpl")
	os.WriteFile(empty, []byte("GIMP Palette\n"), 0644)
	if _, err := LoadGPL(empty); err == nil {
		t.Error("expected error for empty palette")
	}
}
