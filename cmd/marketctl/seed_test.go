package main

import (
	"testing"

	"github.com/shinyyama/campus-market/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestSeedCatalogIsValid(t *testing.T) {
	items := seedCatalog()
	assert.NotEmpty(t, items)
	seen := map[string]bool{}
	for _, it := range items {
		_, err := model.ParseCategory(string(it.Category))
		assert.NoError(t, err, it.Title)
		_, err = model.ParseCondition(string(it.Condition))
		assert.NoError(t, err, it.Title)
		assert.True(t, it.Price.IsPositive(), it.Title)
		assert.False(t, seen[it.Title], "duplicate %s", it.Title)
		seen[it.Title] = true
	}
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"migrate", "reconcile-carts", "settle", "grant-admin", "seed"} {
		cmd, _, err := root.Find([]string{name})
		assert.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
	settle, _, _ := root.Find([]string{"settle"})
	assert.NotNil(t, settle.Flags().Lookup("buyer"))
	assert.NotNil(t, settle.Flags().Lookup("payment"))
}
