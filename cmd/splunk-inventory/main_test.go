package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimyag/splunk-inventory/pkg/errors"
)

func TestSplitEnvFiles(t *testing.T) {
	assert.Nil(t, splitEnvFiles(""))
	assert.Equal(t, []string{"a.env", "b.env"}, splitEnvFiles(" a.env, ,b.env "))
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "splunk.env")
	require.NoError(t, os.WriteFile(envFile, []byte("SPLUNK_PASSWORD=helloworld\n"), 0o644))

	tests := []struct {
		name    string
		args    cliArgs
		wantErr bool
	}{
		{name: "defaults", args: cliArgs{artifactDir: "/opt/container_artifact"}},
		{name: "existing env file and base dir", args: cliArgs{envFiles: []string{envFile}, baseDir: dir}},
		{name: "extra positional args", args: cliArgs{rest: []string{"all"}}, wantErr: true},
		{name: "write to file without artifact dir", args: cliArgs{writeToFile: true, artifactDir: " "}, wantErr: true},
		{name: "missing env file", args: cliArgs{envFiles: []string{filepath.Join(dir, "nope.env")}}, wantErr: true},
		{name: "env file is a directory", args: cliArgs{envFiles: []string{dir}}, wantErr: true},
		{name: "base dir is a file", args: cliArgs{baseDir: envFile}, wantErr: true},
		{name: "missing base dir", args: cliArgs{baseDir: filepath.Join(dir, "nope")}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.args.validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.IsInvalidArgsError(err), "got %v", err)
		})
	}
}
