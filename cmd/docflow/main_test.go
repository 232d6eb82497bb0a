package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/docflow/batch"
	"github.com/BaSui01/docflow/docintel"

	"github.com/BaSui01/docflow/testutil"
	"github.com/BaSui01/docflow/testutil/mocks"
)

func setupEnv(t *testing.T, srv *mocks.DocIntelServer, key string) {
	t.Helper()
	t.Setenv("DOCFLOW_ENDPOINTS", srv.Endpoint("a"))
	t.Setenv("DOCFLOW_API_KEYS", key)
	t.Setenv("DOCFLOW_ANALYSIS_POLL_INTERVAL", "5ms")
	t.Setenv("DOCFLOW_LOG_OUTPUT_PATHS", filepath.Join(t.TempDir(), "docflow.log"))
}

func TestRun_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, exitFatal, run(nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Usage:")

	stdout.Reset()
	assert.Equal(t, exitOK, run([]string{"help"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "analyze")

	stderr.Reset()
	assert.Equal(t, exitFatal, run([]string{"bogus"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Unknown command: bogus")
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, exitOK, run([]string{"version"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "DocFlow dev")
}

func TestAnalyze_RequiresDocuments(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, exitFatal, run([]string{"analyze"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "--url or --file")
}

func TestAnalyze_RequiresCredentials(t *testing.T) {
	t.Setenv("DOCFLOW_ENDPOINTS", "")
	t.Setenv("DOCFLOW_API_KEYS", "")
	var stdout, stderr bytes.Buffer
	assert.Equal(t, exitFatal, run([]string{"analyze", "--url", "https://doc/a.pdf"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "at least one credential is required")
}

func TestAnalyze_InvalidFormat(t *testing.T) {
	srv := mocks.NewDocIntelServer()
	defer srv.Close()
	setupEnv(t, srv, "K")

	var stdout, stderr bytes.Buffer
	code := run([]string{"analyze", "--url", "https://doc/a.pdf", "--format", "html"}, &stdout, &stderr)
	assert.Equal(t, exitFatal, code)
	assert.Contains(t, stderr.String(), "output_format")
	assert.Empty(t, srv.Submissions())
}

func TestAnalyze_WritesOrderedResults(t *testing.T) {
	srv := mocks.NewDocIntelServer()
	defer srv.Close()
	setupEnv(t, srv, "K")
	path := testutil.WriteTempFile(t, "scan.pdf", []byte("scan"))

	var stdout, stderr bytes.Buffer
	code := run([]string{"analyze",
		"--url", "https://doc/a.pdf,https://doc/b.pdf",
		"--file", path,
		"--features", "formulas",
		"--format", "markdown",
	}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	var results []struct {
		Index   int             `json:"index"`
		Kind    string          `json:"kind"`
		Source  string          `json:"source"`
		Status  string          `json:"status"`
		Payload json.RawMessage `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &results))
	require.Len(t, results, 3)
	assert.Equal(t, "https://doc/a.pdf", results[0].Source)
	assert.Equal(t, "https://doc/b.pdf", results[1].Source)
	assert.Equal(t, path, results[2].Source)
	assert.Equal(t, "file", results[2].Kind)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, "ok", r.Status)
	}
	assert.JSONEq(t, `{"content":"scan"}`, string(results[2].Payload))

	for _, sub := range srv.Submissions() {
		assert.Contains(t, sub.RawQuery, "outputContentFormat=markdown&features=formulas")
	}
}

func TestAnalyze_FailedItemsExitCode(t *testing.T) {
	srv := mocks.NewDocIntelServer().WithValidKeys("right-key")
	defer srv.Close()
	setupEnv(t, srv, "wrong-key")
	out := filepath.Join(t.TempDir(), "out.json")

	var stdout, stderr bytes.Buffer
	code := run([]string{"analyze", "--url", "https://doc/a.pdf", "--output", out}, &stdout, &stderr)
	assert.Equal(t, exitItemsFailed, code)
	assert.Empty(t, stdout.String())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status": "SUBMISSION_FAILED"`)
	assert.NotContains(t, string(data), "wrong-key")
}

func TestListFlag(t *testing.T) {
	var l listFlag
	require.NoError(t, l.Set("a, b,,c"))
	require.NoError(t, l.Set("d"))
	assert.Equal(t, listFlag{"a", "b", "c", "d"}, l)
	assert.Equal(t, "a,b,c,d", l.String())
}

// failingCloser 写入成功但关闭失败，模拟落盘失败
type failingCloser struct {
	bytes.Buffer
	closeErr error
}

func (f *failingCloser) Close() error { return f.closeErr }

func TestWriteResults_CloseErrorIsReported(t *testing.T) {
	diskFull := errors.New("no space left on device")
	out := &failingCloser{closeErr: diskFull}

	orig := createOutput
	createOutput = func(string) (io.WriteCloser, error) { return out, nil }
	t.Cleanup(func() { createOutput = orig })

	items := docintel.URLItems([]string{"https://doc/a.pdf"})
	outcomes := []batch.Outcome{{Payload: json.RawMessage(`{"content":"a"}`)}}

	err := writeResults(io.Discard, "out.json", items, outcomes)
	require.Error(t, err)
	assert.ErrorIs(t, err, diskFull)
	assert.Contains(t, out.String(), `"source": "https://doc/a.pdf"`)
}

func TestWriteResults_Stdout(t *testing.T) {
	var stdout bytes.Buffer
	items := docintel.URLItems([]string{"https://doc/a.pdf?x=1&y=2"})
	outcomes := []batch.Outcome{{Payload: json.RawMessage(`{}`)}}

	require.NoError(t, writeResults(&stdout, "", items, outcomes))
	assert.Contains(t, stdout.String(), "https://doc/a.pdf?x=1&y=2")
}

func TestAbortOnServerError(t *testing.T) {
	t.Run("server error cancels with cause", func(t *testing.T) {
		ctx, cancel := context.WithCancelCause(context.Background())
		defer cancel(nil)
		errs := make(chan error, 1)
		listenerDied := errors.New("accept tcp: use of closed network connection")

		done := make(chan struct{})
		go func() {
			abortOnServerError(ctx, errs, cancel, zaptest.NewLogger(t))
			close(done)
		}()
		errs <- listenerDied

		select {
		case <-ctx.Done():
		case <-time.After(time.Second):
			t.Fatal("batch context not cancelled")
		}
		<-done
		assert.ErrorIs(t, context.Cause(ctx), listenerDied)
	})

	t.Run("returns when batch finishes", func(t *testing.T) {
		ctx, cancel := context.WithCancelCause(context.Background())
		errs := make(chan error)

		done := make(chan struct{})
		go func() {
			abortOnServerError(ctx, errs, cancel, zaptest.NewLogger(t))
			close(done)
		}()
		cancel(nil)

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("watcher did not exit")
		}
		assert.ErrorIs(t, context.Cause(ctx), context.Canceled)
	})
}
