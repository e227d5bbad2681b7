package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/panyam/prefixer/processor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type runResult struct {
	code   int
	stdout string
	stderr string
}

// run executes the command line with the given stdin and a log file inside
// the test's temp dir.
func run(t *testing.T, ctx context.Context, stdin io.Reader, args ...string) runResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	args = append([]string{"--log-file", filepath.Join(t.TempDir(), "prefixer.log"), "--no-color"}, args...)
	code := Execute(ctx, args, Streams{In: stdin, Out: &stdout, Err: &stderr})
	return runResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func unsetPassword(t *testing.T) {
	t.Helper()
	t.Setenv(processor.PasswordEnvVar, "")
	require.NoError(t, os.Unsetenv(processor.PasswordEnvVar))
}

func TestExecute_PrefixesStdinWithEnvPassword(t *testing.T) {
	t.Setenv(processor.PasswordEnvVar, "secret")

	res := run(t, context.Background(), strings.NewReader("alpha\nbeta\n"), "-r", "host", "-u", "alice")
	assert.Equal(t, ExitOK, res.code, res.stderr)
	assert.Equal(t, " >> alpha\n >> beta\n", res.stdout)
	assert.Empty(t, res.stderr)
}

func TestExecute_MissingPassword(t *testing.T) {
	unsetPassword(t)

	res := run(t, context.Background(), strings.NewReader("alpha\nbeta\n"), "-r", "host", "-u", "alice")
	assert.Equal(t, ExitConfig, res.code)
	assert.Empty(t, res.stdout)
	assert.Contains(t, res.stderr, "[ ERROR ] no password given")
}

func TestExecute_PasswordFlag(t *testing.T) {
	unsetPassword(t)

	res := run(t, context.Background(), strings.NewReader("alpha\n"), "-r", "host", "-u", "alice", "-p", "explicit")
	assert.Equal(t, ExitOK, res.code, res.stderr)
	assert.Equal(t, " >> alpha\n", res.stdout)
}

func TestExecute_EmptyInput(t *testing.T) {
	t.Setenv(processor.PasswordEnvVar, "secret")

	res := run(t, context.Background(), strings.NewReader(""), "-r", "host", "-u", "alice")
	assert.Equal(t, ExitOK, res.code)
	assert.Empty(t, res.stdout)
}

func TestExecute_RequiredFlags(t *testing.T) {
	t.Setenv(processor.PasswordEnvVar, "secret")

	res := run(t, context.Background(), strings.NewReader("alpha\n"))
	assert.Equal(t, ExitUsage, res.code)
	assert.Contains(t, res.stderr, `required flag(s) "remote", "username" not set`)
	assert.Empty(t, res.stdout)

	res = run(t, context.Background(), strings.NewReader("alpha\n"), "-r", "host")
	assert.Equal(t, ExitUsage, res.code)
	assert.Contains(t, res.stderr, `required flag(s) "username" not set`)
}

func TestExecute_FilesAndCustomPrefix(t *testing.T) {
	t.Setenv(processor.PasswordEnvVar, "secret")
	tmpDir := t.TempDir()
	in := filepath.Join(tmpDir, "in.txt")
	out := filepath.Join(tmpDir, "out.txt")
	require.NoError(t, os.WriteFile(in, []byte("one\r\ntwo"), 0644))
	require.NoError(t, os.WriteFile(out, []byte("old content that must go away\n"), 0644))

	res := run(t, context.Background(), strings.NewReader(""), "-r", "host", "-u", "alice", "--prefix", "# ", "-o", out, in)
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Empty(t, res.stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "# one\r\n# two", string(data))
}

func TestExecute_DashMeansStdStreams(t *testing.T) {
	t.Setenv(processor.PasswordEnvVar, "secret")

	res := run(t, context.Background(), strings.NewReader("x\n"), "-r", "host", "-u", "alice", "-o", "-", "-")
	assert.Equal(t, ExitOK, res.code, res.stderr)
	assert.Equal(t, " >> x\n", res.stdout)
}

func TestExecute_UnreadableInput(t *testing.T) {
	t.Setenv(processor.PasswordEnvVar, "secret")

	res := run(t, context.Background(), strings.NewReader(""), "-r", "host", "-u", "alice", filepath.Join(t.TempDir(), "missing.txt"))
	assert.Equal(t, ExitUsage, res.code)
	assert.Contains(t, res.stderr, "[ CRITICAL ] unable to process")
}

func TestExecute_FollowNeedsInputFile(t *testing.T) {
	t.Setenv(processor.PasswordEnvVar, "secret")

	res := run(t, context.Background(), strings.NewReader(""), "-r", "host", "-u", "alice", "-f")
	assert.Equal(t, ExitUsage, res.code)
	assert.Contains(t, res.stderr, "--follow needs an input file")
}

func TestExecute_Verbosity(t *testing.T) {
	t.Setenv(processor.PasswordEnvVar, "secret")

	res := run(t, context.Background(), strings.NewReader("x\n"), "-r", "host", "-u", "alice", "-v")
	assert.Equal(t, ExitOK, res.code)
	assert.Contains(t, res.stderr, "[ INFO ] Processing input=<*strings.Reader> output=<*bytes.Buffer>")
	assert.Contains(t, res.stderr, "[ INFO ] Remote destination host=host user=alice")
	assert.NotContains(t, res.stderr, "DEBUG")

	res = run(t, context.Background(), strings.NewReader("x\n"), "-r", "host", "-u", "alice", "-vv")
	assert.Equal(t, ExitOK, res.code)
	assert.Contains(t, res.stderr, "[ DEBUG ] done")
	assert.NotContains(t, res.stderr, "secret")
}

func TestExecute_LogFileAlwaysGetsInfo(t *testing.T) {
	t.Setenv(processor.PasswordEnvVar, "secret")
	logFile := filepath.Join(t.TempDir(), "run.log")

	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(),
		[]string{"-r", "host", "-u", "alice", "--log-file", logFile},
		Streams{In: strings.NewReader("x\n"), Out: &stdout, Err: &stderr})
	require.Equal(t, ExitOK, code)
	assert.Empty(t, stderr.String())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[ INFO ] Processing")
	assert.Contains(t, string(data), "[ INFO ] Processed lines=1")
	assert.NotContains(t, string(data), "DEBUG")
}

func TestExecute_CancelledContextExitsCleanly(t *testing.T) {
	t.Setenv(processor.PasswordEnvVar, "secret")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pr, pw := io.Pipe()
	defer pw.Close()

	res := run(t, ctx, pr, "-r", "host", "-u", "alice", "-vv")
	assert.Equal(t, ExitOK, res.code)
	assert.Empty(t, res.stdout)
	assert.Contains(t, res.stderr, "[ DEBUG ] done")
}

func TestExecute_SettingsFile(t *testing.T) {
	t.Setenv(processor.PasswordEnvVar, "secret")
	cfg := filepath.Join(t.TempDir(), "prefixer.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("remote:\n  host: cfghost\n  user: cfguser\nprefix: \"> \"\n"), 0644))

	res := run(t, context.Background(), strings.NewReader("x\n"), "-c", cfg)
	assert.Equal(t, ExitOK, res.code, res.stderr)
	assert.Equal(t, "> x\n", res.stdout)

	res = run(t, context.Background(), strings.NewReader("x\n"), "-c", cfg, "--prefix", "| ")
	assert.Equal(t, ExitOK, res.code, res.stderr)
	assert.Equal(t, "| x\n", res.stdout)

	res = run(t, context.Background(), strings.NewReader("x\n"), "-c", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Equal(t, ExitUsage, res.code)
	assert.Contains(t, res.stderr, "config file not found")
}

func TestExecute_UnknownFlag(t *testing.T) {
	res := run(t, context.Background(), strings.NewReader(""), "--bogus")
	assert.Equal(t, ExitUsage, res.code)
	assert.Contains(t, res.stderr, "unknown flag: --bogus")
}

func TestConfigCommand(t *testing.T) {
	t.Setenv(processor.PasswordEnvVar, "secret")

	res := run(t, context.Background(), strings.NewReader(""), "config", "-r", "host", "-u", "alice", "--format", "json")
	require.Equal(t, ExitOK, res.code, res.stderr)

	var settings effectiveSettings
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &settings))
	assert.Equal(t, "host", settings.Remote.Host)
	assert.Equal(t, "alice", settings.Remote.User)
	assert.Equal(t, maskedPassword, settings.Remote.Password)
	assert.Equal(t, "<stdin>", settings.Infile)
	assert.Equal(t, "<stdout>", settings.Outfile)
	assert.Equal(t, processor.DefaultPrefix, settings.Prefix)
	assert.False(t, settings.ColorLogs)
	assert.NotContains(t, res.stdout, "secret")

	res = run(t, context.Background(), strings.NewReader(""), "config", "--format", "yaml", "-v")
	require.Equal(t, ExitOK, res.code, res.stderr)
	settings = effectiveSettings{}
	require.NoError(t, yaml.Unmarshal([]byte(res.stdout), &settings))
	assert.Equal(t, 1, settings.Verbosity)

	res = run(t, context.Background(), strings.NewReader(""), "config", "-r", "host")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "host")
	assert.Contains(t, res.stdout, "flag")

	res = run(t, context.Background(), strings.NewReader(""), "config", "--format", "xml")
	assert.Equal(t, ExitUsage, res.code)
	assert.Contains(t, res.stderr, `unknown output format "xml"`)
}

func TestConfigCommand_NoPassword(t *testing.T) {
	unsetPassword(t)

	res := run(t, context.Background(), strings.NewReader(""), "config", "--format", "json")
	require.Equal(t, ExitOK, res.code, res.stderr)
	var settings effectiveSettings
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &settings))
	assert.Empty(t, settings.Remote.Password)
}

func TestInitCommand(t *testing.T) {
	t.Setenv(processor.PasswordEnvVar, "secret")
	tmpDir := t.TempDir()

	for _, name := range []string{"prefixer.yaml", "prefixer.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(tmpDir, name)

			res := run(t, context.Background(), strings.NewReader(""), "init", path)
			require.Equal(t, ExitOK, res.code, res.stderr)
			assert.Contains(t, res.stdout, "Created "+path)

			res = run(t, context.Background(), strings.NewReader(""), "init", path)
			assert.Equal(t, ExitUsage, res.code)
			assert.Contains(t, res.stderr, "already exists")

			res = run(t, context.Background(), strings.NewReader(""), "init", "--force", path)
			assert.Equal(t, ExitOK, res.code, res.stderr)

			res = run(t, context.Background(), strings.NewReader("x\n"), "-c", path, "-u", "tester")
			assert.Equal(t, ExitOK, res.code, res.stderr)
			assert.Equal(t, " >> x\n", res.stdout)
		})
	}
}

func TestHelpCommand(t *testing.T) {
	res := run(t, context.Background(), strings.NewReader(""), "help", "config")
	assert.Equal(t, ExitOK, res.code)
	assert.Contains(t, res.stdout, "Settings file reference")
	assert.Contains(t, res.stdout, "remote.host")

	res = run(t, context.Background(), strings.NewReader(""), "help", "init")
	assert.Equal(t, ExitOK, res.code)
	assert.Contains(t, res.stdout, "Create a starter settings file")

	res = run(t, context.Background(), strings.NewReader(""), "help", "nonsense")
	assert.Equal(t, ExitOK, res.code)
	assert.Contains(t, res.stdout, "Unknown help topic: nonsense")
}
