package query

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/seedkeeper/internal/client/models"
)

// Item is a raw metadata record for one directory entry.
type Item struct {
	Path      string
	Name      string
	IsDir     bool
	IsPackage bool
	Size      int64
	ModTime   time.Time
}

func newItem(dir string, fi fs.FileInfo) Item {
	return Item{
		Path:      filepath.Join(dir, fi.Name()),
		Name:      fi.Name(),
		IsDir:     fi.IsDir(),
		IsPackage: fi.IsDir() && filepath.Ext(fi.Name()) != "",
		Size:      fi.Size(),
		ModTime:   fi.ModTime(),
	}
}

// Visible reports whether the item belongs in query results.
func Visible(it Item) bool {
	if it.IsDir || it.IsPackage {
		return false
	}
	name := it.Name
	if strings.HasPrefix(name, ".") {
		target, ok := models.PlaceholderTarget(name)
		if !ok || strings.HasPrefix(target, ".") {
			return false
		}
		name = target
	}
	return !models.IsDeleted(name)
}

// filterAndSort returns the visible items ordered by name.
func filterAndSort(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if Visible(it) {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
