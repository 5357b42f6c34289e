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
	dir, err := ioutil.TempDir("", "compiler")
	require.Nil(t, err)
	defer os.RemoveAll(dir)
	input := filepath.Join(dir, "Main.jack")
	require.Nil(t, ioutil.WriteFile(input, []byte("class Main { function void main() { return; } }"), 0644))

	stdout, stderr := bytes.Buffer{}, bytes.Buffer{}
	assert.Equal(t, cli.ExitOK, run([]string{"-v", input}, &stdout, &stderr))
	assert.Equal(t, "function Main.main 0\npush constant 0\nreturn\n", stdout.String())
	assert.True(t, strings.Contains(stderr.String(), "compiled "+filepath.Join(dir, "Main.vm")))
}

func TestRun_Failure(t *testing.T) {
	dir, err := ioutil.TempDir("", "compiler")
	require.Nil(t, err)
	defer os.RemoveAll(dir)
	require.Nil(t, ioutil.WriteFile(filepath.Join(dir, "Main.jack"), []byte("class Main {\n function void main() {\n let x = 1;\n return;\n }\n}\n"), 0644))

	stderr := bytes.Buffer{}
	assert.Equal(t, cli.ExitFailure, run([]string{"-path", dir}, ioutil.Discard, &stderr))
	assert.True(t, strings.Contains(stderr.String(), "at line 3"))
	_, statErr := os.Stat(filepath.Join(dir, "Main.vm"))
	assert.True(t, os.IsNotExist(statErr))
}
