package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrom(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(SetLanguage("en-US"))
	assert.Equal("register 12 of 10", From("register %d of %d", 12, 10))
	assert.Equal("address 0x10", From("address %#x", 16))
}

func TestSetLanguage_Invalid(t *testing.T) {
	assert := assert.New(t)

	assert.Error(SetLanguage("not a language tag!"))
}
