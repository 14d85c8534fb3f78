package postboard

import (
	"testing"

	"github.com/cucumber/godog"
	"github.com/stretchr/testify/assert"
)

type seededPost struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

func TestGenericDBSeeder_Seed(t *testing.T) {
	var saved []interface{}
	seeder := NewGenericDBSeeder()
	seeder.Register("posts",
		func() interface{} { return &seededPost{} },
		func(docs []interface{}) error {
			saved = docs
			return nil
		})

	t.Run("unknown document", func(t *testing.T) {
		assert.Error(t, seeder.Seed("comments", &godog.Table{}))
	})

	t.Run("empty table", func(t *testing.T) {
		assert.NotPanics(t, func() {
			assert.Error(t, seeder.Seed("posts", &godog.Table{}))
		})
	})

	t.Run("nil table", func(t *testing.T) {
		assert.Error(t, seeder.Seed("posts", nil))
	})

	assert.Nil(t, saved)
}

func TestToPascalCase(t *testing.T) {
	assert.Equal(t, "Title", toPascalCase("title"))
	assert.Equal(t, "", toPascalCase(""))
}
