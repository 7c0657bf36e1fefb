package models

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestTransaction_NoteColumnIsText(t *testing.T) {
	s, err := schema.Parse(&Transaction{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	f := s.LookUpField("Note")
	require.NotNil(t, f)
	assert.Equal(t, "text", f.TagSettings["TYPE"])
	assert.Zero(t, f.Size)
}
