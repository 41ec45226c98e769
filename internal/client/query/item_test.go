package query

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestVisible(t *testing.T) {
	tests := []struct {
		name string
		item Item
		want bool
	}{
		{"regular", Item{Name: "abc@def"}, true},
		{"deleted", Item{Name: "abc@def.delete"}, false},
		{"directory", Item{Name: "sub", IsDir: true}, false},
		{"package", Item{Name: "bundle.pkg", IsDir: true, IsPackage: true}, false},
		{"hidden", Item{Name: ".seedkeeper.lock"}, false},
		{"temp file", Item{Name: ".tmp-123"}, false},
		{"placeholder", Item{Name: ".abc@def.icloud"}, true},
		{"deleted placeholder", Item{Name: ".abc@def.delete.icloud"}, false},
		{"bare placeholder suffix", Item{Name: ".icloud"}, false},
		{"empty placeholder target", Item{Name: "..icloud"}, false},
		{"hidden placeholder", Item{Name: "..x.icloud"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Visible(tt.item))
		})
	}
}

func TestFilterAndSort(t *testing.T) {
	in := []Item{
		{Name: "c"},
		{Name: ".hidden"},
		{Name: "a"},
		{Name: "b.delete"},
		{Name: ".b.icloud"},
		{Name: "dir", IsDir: true},
	}
	got := filterAndSort(in)

	names := make([]string, 0, len(got))
	for _, it := range got {
		names = append(names, it.Name)
	}
	if diff := cmp.Diff([]string{".b.icloud", "a", "c"}, names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}
