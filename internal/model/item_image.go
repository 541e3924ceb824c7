package model

import (
	"strings"
	"time"
)

// ItemImage is one storage object reference attached to an item. Position is
// the display order, starting at zero for the cover image.
type ItemImage struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	ItemID    string    `gorm:"column:item_id;size:36;not null;uniqueIndex:uq_item_images_position,priority:1"`
	Position  int       `gorm:"column:position;not null;uniqueIndex:uq_item_images_position,priority:2"`
	Ref       string    `gorm:"column:ref;size:512;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (ItemImage) TableName() string { return "item_images" }

// NewItemImages numbers refs in the order given, dropping blanks and repeats.
func NewItemImages(itemID string, refs []string) []ItemImage {
	seen := make(map[string]struct{}, len(refs))
	out := make([]ItemImage, 0, len(refs))
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, ItemImage{ItemID: itemID, Position: len(out), Ref: ref})
	}
	return out
}
