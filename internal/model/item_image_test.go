package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewItemImages(t *testing.T) {
	got := NewItemImages("item-1", []string{"a.jpg", " ", "b.jpg", "a.jpg", " c.jpg "})
	refs := make([]string, 0, len(got))
	for i, img := range got {
		assert.Equal(t, "item-1", img.ItemID)
		assert.Equal(t, i, img.Position)
		refs = append(refs, img.Ref)
	}
	assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg"}, refs)
	assert.Empty(t, NewItemImages("item-1", nil))
}
