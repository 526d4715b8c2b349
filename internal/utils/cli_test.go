package utils

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xRadioAc7iv/go-kvs/internal"
)

func TestSplitStringIntoCommandAndArguments(t *testing.T) {
	tests := []struct {
		name string
		line string
		cmd  string
		args []string
	}{
		{"simple", "get foo", "get", []string{"foo"}},
		{"upper case command", "SET a 1", "set", []string{"a", "1"}},
		{"double quoted value", `set city "new york"`, "set", []string{"city", "new york"}},
		{"single quoted value", `set q 'it''s'`, "set", []string{"q", "its"}},
		{"escaped space", `set k a\ b`, "set", []string{"k", "a b"}},
		{"no arguments", "keys", "keys", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, err := SplitStringIntoCommandAndArguments(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.cmd, cmd)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestSplitStringIntoCommandAndArgumentsErrors(t *testing.T) {
	_, _, err := SplitStringIntoCommandAndArguments(`set k "unterminated`)
	assert.Error(t, err)

	_, _, err = SplitStringIntoCommandAndArguments("   ")
	assert.Error(t, err)
}

func TestHandleCLIInputs(t *testing.T) {
	in, err := HandleCLIInputs([]string{"-dir", "/tmp/store", "-sync", "get", "k"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, []string{"get", "k"}, in.Args)

	cfg := &internal.Config{Dir: "/from/file", LockDirectory: true, LogLevel: "info"}
	in.ApplyTo(cfg)

	assert.Equal(t, "/tmp/store", cfg.Dir)
	assert.True(t, cfg.SyncOnWrite)
	assert.True(t, cfg.LockDirectory, "flags not given must keep file values")
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestHandleCLIInputsUnknownFlag(t *testing.T) {
	_, err := HandleCLIInputs([]string{"-nope"}, io.Discard)
	assert.Error(t, err)
}
