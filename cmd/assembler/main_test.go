package main

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nandkit/hack/internal/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	dir, err := ioutil.TempDir("", "assembler")
	require.Nil(t, err)
	defer os.RemoveAll(dir)
	require.Nil(t, ioutil.WriteFile(filepath.Join(dir, "Add.asm"), []byte("@2\nD=A\n@3\nD=D+A\n@0\nM=D\n"), 0644))

	stdout, stderr := bytes.Buffer{}, bytes.Buffer{}
	assert.Equal(t, cli.ExitOK, run([]string{"-v", dir}, &stdout, &stderr))
	content, err := ioutil.ReadFile(filepath.Join(dir, "Add.hack"))
	require.Nil(t, err)
	expected := "0000000000000010\n1110110000010000\n0000000000000011\n1110000010010000\n0000000000000000\n1110001100001000\n"
	assert.Equal(t, expected, string(content))
	assert.Equal(t, expected, stdout.String())
	assert.True(t, strings.Contains(stderr.String(), "[Assembler]: run "))
}

func TestRun_Failures(t *testing.T) {
	dir, err := ioutil.TempDir("", "assembler")
	require.Nil(t, err)
	defer os.RemoveAll(dir)
	bad := filepath.Join(dir, "Bad.asm")
	require.Nil(t, ioutil.WriteFile(bad, []byte("@1\nD=Q\n"), 0644))

	stderr := bytes.Buffer{}
	assert.Equal(t, cli.ExitFailure, run([]string{"-i", bad}, ioutil.Discard, &stderr))
	assert.True(t, strings.Contains(stderr.String(), "at line 2"))
	_, statErr := os.Stat(filepath.Join(dir, "Bad.hack"))
	assert.True(t, os.IsNotExist(statErr))

	assert.Equal(t, cli.ExitUsage, run(nil, ioutil.Discard, ioutil.Discard))
	assert.Equal(t, cli.ExitUsage, run([]string{"-o", "x.hack", dir}, ioutil.Discard, ioutil.Discard))
	assert.Equal(t, cli.ExitFailure, run([]string{filepath.Join(dir, "Missing.asm")}, ioutil.Discard, ioutil.Discard))
}
