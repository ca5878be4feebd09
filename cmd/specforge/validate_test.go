package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/specforge-backend/internal/contract"
)

func runValidate(t *testing.T, input string) (contract.Result, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs([]string{"validate", "-"})
	err := rootCmd.Execute()

	var res contract.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	return res, err
}

func TestValidateCommand(t *testing.T) {
	var b strings.Builder
	b.WriteString(contract.Delimiter + "\n")
	for _, h := range contract.RequiredSections {
		b.WriteString(h + "\ntext\n")
	}
	res, err := runValidate(t, b.String())
	require.NoError(t, err)
	assert.True(t, res.Valid)

	res, err = runValidate(t, "<button onClick={go}>")
	assert.Error(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"Missing ---SPEC_START--- delimiter", "HTML/JSX detected: <button[^>]*>"}, res.Issues)
}
