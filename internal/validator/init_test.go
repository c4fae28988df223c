package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Mode  string `yaml:"mode" validate:"oneof=close bot"`
	Inner inner  `yaml:"inner"`
}

type inner struct {
	Addr string `yaml:"addr" validate:"required"`
}

func TestStruct_ReportsYAMLKeys(t *testing.T) {
	err := Struct(sample{Mode: "wait"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mode: failed oneof=close bot (got wait)")
	assert.Contains(t, err.Error(), "inner.addr: failed required")

	assert.NoError(t, Struct(sample{Mode: "bot", Inner: inner{Addr: ":5000"}}))
}
