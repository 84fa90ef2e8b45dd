package alert

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveIntPrecedence(t *testing.T) {
	call := 10
	entity := 20

	assert.Equal(t, 10, ResolveInt(&call, &entity, 30))
	assert.Equal(t, 20, ResolveInt(nil, &entity, 30))
	assert.Equal(t, 30, ResolveInt(nil, nil, 30))
}

func TestResolveFloatPrecedence(t *testing.T) {
	call := 1.5
	entity := 2.5

	assert.Equal(t, 1.5, ResolveFloat(&call, &entity, 3.5))
	assert.Equal(t, 2.5, ResolveFloat(nil, &entity, 3.5))
	assert.Equal(t, 3.5, ResolveFloat(nil, nil, 3.5))
}

func TestResolveZeroValuesAreExplicit(t *testing.T) {
	zero := 0
	assert.Equal(t, 0, ResolveInt(&zero, nil, 30), "an explicit zero is not a missing value")
}
