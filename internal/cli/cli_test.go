package cli_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/prereqgraph/internal/cli"
	"github.com/gyaneshwarpardhi/prereqgraph/internal/config"
)

func TestParse(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		args        []string
		expectExit  bool
		expectErr   bool
		expected    *cli.Options
		checkOutput func(t *testing.T, output string)
	}{
		{
			name: "all flags",
			args: []string{
				"-config", "prereq.yaml",
				"--workers=4",
				"-refresh",
				"-select", `level >= 3`,
				"-export=dot",
				"-out", "graph.dot",
				"-serve", ":8080",
				"--log-level=DEBUG",
				"--log-format=json",
				"matnat/math/", "MAT2400", "MAT3400",
			},
			expected: &cli.Options{
				ConfigPath: "prereq.yaml",
				Workers:    4,
				Refresh:    true,
				Select:     `level >= 3`,
				Export:     "dot",
				Out:        "graph.dot",
				Serve:      ":8080",
				LogLevel:   "debug",
				LogFormat:  "json",
				Subtree:    "matnat/math",
				Seeds:      []string{"MAT2400", "MAT3400"},
			},
		},
		{
			name:     "subtree only",
			args:     []string{"hf"},
			expected: &cli.Options{Subtree: "hf", Seeds: []string{}},
		},
		{
			name:       "help exits cleanly",
			args:       []string{"-h"},
			expectExit: true,
			checkOutput: func(t *testing.T, output string) {
				require.True(t, strings.Contains(output, "Usage:"))
			},
		},
		{
			name:       "missing subtree prints usage",
			args:       []string{},
			expectExit: true,
			checkOutput: func(t *testing.T, output string) {
				require.True(t, strings.Contains(output, "SUBTREE"))
			},
		},
		{name: "unknown flag", args: []string{"-nope", "hf"}, expectErr: true},
		{name: "invalid log level", args: []string{"--log-level=trace", "hf"}, expectErr: true},
		{name: "invalid log format", args: []string{"--log-format=yaml", "hf"}, expectErr: true},
		{name: "negative workers", args: []string{"-workers=-1", "hf"}, expectErr: true},
		{name: "slash-only subtree", args: []string{"/"}, expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			out := &bytes.Buffer{}

			opts, shouldExit, err := cli.Parse(tc.args, out)

			if tc.expectErr {
				require.Error(t, err)
				var exitErr *cli.ExitError
				require.ErrorAs(t, err, &exitErr)
				assert.Equal(t, 2, exitErr.Code)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expectExit, shouldExit)
			if tc.expected != nil {
				if diff := cmp.Diff(tc.expected, opts); diff != "" {
					t.Errorf("Options mismatch (-want +got):\n%s", diff)
				}
			}
			if tc.checkOutput != nil {
				tc.checkOutput(t, out.String())
			}
		})
	}
}

func TestApply(t *testing.T) {
	cfg := config.Default()
	cfg.Prune.Seeds = []string{"IN1000"}

	opts, _, err := cli.Parse([]string{"-workers", "3", "-select", `code == "X"`, "-log-format", "json", "matnat", "MAT1100"}, &bytes.Buffer{})
	require.NoError(t, err)
	opts.Apply(cfg)

	assert.Equal(t, 3, cfg.Crawler.Workers)
	assert.Equal(t, `code == "X"`, cfg.Prune.Select)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, []string{"IN1000", "MAT1100"}, cfg.Prune.Seeds)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := cli.NewLogger("warn", "json", &buf)
	assert.False(t, log.Enabled(context.Background(), slog.LevelInfo))
	log.Warn("hello", "code", "MAT1100")
	assert.Contains(t, buf.String(), `"code":"MAT1100"`)

	buf.Reset()
	cli.NewLogger("bogus", "text", &buf).Info("hi")
	assert.Contains(t, buf.String(), "msg=hi")
}
