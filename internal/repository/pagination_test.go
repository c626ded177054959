package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPageMeta(t *testing.T) {
	meta := NewPageMeta(0, 1)
	assert.Equal(t, PageMeta{Total: 0, Page: 1, LastPage: 0}, meta)

	meta = NewPageMeta(10, 1)
	assert.Equal(t, PageMeta{Total: 10, Page: 1, LastPage: 1}, meta)

	meta = NewPageMeta(11, 2)
	assert.Equal(t, PageMeta{Total: 11, Page: 2, LastPage: 2}, meta)

	meta = NewPageMeta(25, 3)
	assert.Equal(t, 3, meta.LastPage)
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Offset(1))
	assert.Equal(t, 10, Offset(2))
	assert.Equal(t, 90, Offset(10))
}
