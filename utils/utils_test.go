package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToPtr(t *testing.T) {
	value := ToPtr("hello")
	assert.Equal(t, "hello", *value)
}
