package storage

import (
	"context"
	"errors"
	"testing"

	gcs "cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
)

type recordingDeleter struct {
	deleted []string
	fail    map[string]error
}

func (d *recordingDeleter) deleteObject(ctx context.Context, bucket, object string) error {
	key := bucket + "/" + object
	if err, ok := d.fail[key]; ok {
		return err
	}
	d.deleted = append(d.deleted, key)
	return nil
}

func TestSplitRef(t *testing.T) {
	tests := []struct {
		ref    string
		bucket string
		object string
		ok     bool
	}{
		{"gs://market-images/items/1/a.jpg", "market-images", "items/1/a.jpg", true},
		{"https://storage.googleapis.com/other/x.png", "other", "x.png", true},
		{"items/2/b.jpg", "default", "items/2/b.jpg", true},
		{"/items/3/c.jpg", "default", "items/3/c.jpg", true},
		{"https://picsum.photos/seed/x/600", "", "", false},
		{"gs://bucket-only", "", "", false},
		{"", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			b, o, ok := splitRef("default", tt.ref)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.bucket, b)
			assert.Equal(t, tt.object, o)
		})
	}
}

func TestDeleteIgnoresMissingObjects(t *testing.T) {
	d := &recordingDeleter{fail: map[string]error{
		"default/gone.jpg": gcs.ErrObjectNotExist,
		"default/bad.jpg":  errors.New("permission denied"),
	}}
	s := &gcsImageStore{bucket: "default", deleter: d}

	err := s.Delete(context.Background(), []string{"a.jpg", "gone.jpg", "bad.jpg", "https://example.com/x.jpg"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "bad.jpg")
	assert.NotContains(t, err.Error(), "gone.jpg")
	assert.Equal(t, []string{"default/a.jpg"}, d.deleted)
}

func TestNoopImageStore(t *testing.T) {
	assert.NoError(t, NewNoopImageStore().Delete(context.Background(), []string{"a"}))
}
