package docflow

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/docflow/credential"
	"github.com/BaSui01/docflow/docintel"
	"github.com/BaSui01/docflow/testutil"
	"github.com/BaSui01/docflow/testutil/mocks"
	"github.com/BaSui01/docflow/types"
)

func newTestClient(t *testing.T, srv *mocks.DocIntelServer, creds ...credential.Credential) *Client {
	t.Helper()
	if len(creds) == 0 {
		creds = []credential.Credential{credential.New(srv.Endpoint(""), "K")}
	}
	c, err := NewClient(creds, false,
		WithHTTPClient(srv.Client()),
		WithPollInterval(5*time.Millisecond),
		WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient(nil, false)
	testutil.AssertErrorCode(t, err, types.ErrInvalidInput)
}

func TestNewClient_LogsSwitch(t *testing.T) {
	creds := []credential.Credential{credential.New("https://a.example/", "K")}

	quiet, err := NewClient(creds, false)
	require.NoError(t, err)
	assert.False(t, quiet.logger.Core().Enabled(0))

	loud, err := NewClient(creds, true)
	require.NoError(t, err)
	assert.True(t, loud.logger.Core().Enabled(0))
	assert.Equal(t, 15, loud.Capacity(DefaultMaxRPS))
}

func TestClient_HappyPathSingleURL(t *testing.T) {
	srv := mocks.NewDocIntelServer()
	defer srv.Close()
	srv.Script("https://doc/a.pdf", mocks.Script{Polls: []mocks.PollStep{
		mocks.PollRunning(),
		mocks.PollSucceeded(`{"content":"hello"}`),
	}})

	c := newTestClient(t, srv)
	outcomes, err := c.ProcessBatchFromURLs(testutil.TestContext(t), "prebuilt-layout", []string{"https://doc/a.pdf"})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	require.True(t, outcomes[0].OK())
	assert.JSONEq(t, `{"content":"hello"}`, string(outcomes[0].Payload))

	subs := srv.Submissions()
	require.Len(t, subs, 1)
	assert.Equal(t,
		"/documentintelligence/documentModels/prebuilt-layout:analyze?api-version=2024-11-30&outputContentFormat=text",
		subs[0].RequestURI)
	assert.Equal(t, `{"urlSource":"https://doc/a.pdf"}`, string(subs[0].Body))
	assert.Equal(t, 2, srv.PollCount())
}

func TestClient_FeaturesAndMarkdown(t *testing.T) {
	srv := mocks.NewDocIntelServer()
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.ProcessBatchFromURLs(testutil.TestContext(t), "prebuilt-layout", []string{"https://doc/a.pdf"},
		WithFeatures("ocrHighResolution", "formulas"),
		WithOutputFormat(" Markdown "))
	require.NoError(t, err)

	subs := srv.Submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, "api-version=2024-11-30&outputContentFormat=markdown&features=ocrHighResolution,formulas", subs[0].RawQuery)
}

func TestClient_InvalidOutputFormat(t *testing.T) {
	srv := mocks.NewDocIntelServer()
	defer srv.Close()

	c := newTestClient(t, srv)
	for _, format := range []string{"html", ""} {
		outcomes, err := c.ProcessBatchFromURLs(testutil.TestContext(t), "prebuilt-layout", []string{"https://doc/a.pdf"},
			WithOutputFormat(format))
		assert.Nil(t, outcomes)
		testutil.AssertErrorCode(t, err, types.ErrInvalidInput)
	}
	assert.Empty(t, srv.Submissions())
}

func TestClient_InvalidMaxRPS(t *testing.T) {
	srv := mocks.NewDocIntelServer()
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.ProcessBatchFromURLs(testutil.TestContext(t), "prebuilt-layout", []string{"https://doc/a.pdf"}, WithMaxRPS(0))
	testutil.AssertErrorCode(t, err, types.ErrInvalidInput)
	assert.Empty(t, srv.Submissions())
}

func TestClient_FilesKeepOrderAndContentType(t *testing.T) {
	srv := mocks.NewDocIntelServer()
	defer srv.Close()

	upper := testutil.WriteTempFile(t, "x.PNG", []byte("upper"))
	lower := testutil.WriteTempFile(t, "x.png", []byte("lower"))
	missing := t.TempDir() + "/missing.pdf"

	c := newTestClient(t, srv)
	outcomes, err := c.ProcessBatchFromFiles(testutil.TestContext(t), "prebuilt-read", []string{upper, missing, lower})
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.JSONEq(t, `{"content":"upper"}`, string(outcomes[0].Payload))
	assert.JSONEq(t, `{"content":"lower"}`, string(outcomes[2].Payload))
	require.False(t, outcomes[1].OK())
	assert.Equal(t, types.ErrFileReadFailed, outcomes[1].Err.Code)
	assert.Equal(t, missing, outcomes[1].Err.Path)

	sub, ok := srv.SubmissionFor("upper")
	require.True(t, ok)
	assert.Equal(t, "application/octet-stream", sub.ContentType)
	sub, ok = srv.SubmissionFor("lower")
	require.True(t, ok)
	assert.Equal(t, "image/png", sub.ContentType)
}

func TestClient_MixedItems(t *testing.T) {
	srv := mocks.NewDocIntelServer()
	defer srv.Close()

	path := testutil.WriteTempFile(t, "scan.pdf", []byte("scan"))
	c := newTestClient(t, srv,
		credential.New(srv.Endpoint("a"), "KA"),
		credential.New(srv.Endpoint("b"), "KB"))

	outcomes, err := c.Process(testutil.TestContext(t), "prebuilt-layout", []docintel.Item{
		docintel.URLItem("https://doc/a.pdf"),
		docintel.FileItem(path),
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.True(t, outcomes[0].OK())
	assert.True(t, outcomes[1].OK())

	sub, ok := srv.SubmissionFor("scan")
	require.True(t, ok)
	assert.Equal(t, "b", sub.Prefix)
	assert.Equal(t, "application/pdf", sub.ContentType)
}

func TestClient_CancelledBatch(t *testing.T) {
	srv := mocks.NewDocIntelServer()
	defer srv.Close()
	srv.WithDefaultScript(mocks.Script{Polls: []mocks.PollStep{mocks.PollRunning()}})

	c := newTestClient(t, srv)
	outcomes, err := c.ProcessBatchFromURLs(testutil.CancelledContext(), "prebuilt-layout", []string{"https://doc/a.pdf"})
	assert.Nil(t, outcomes)
	testutil.AssertErrorCode(t, err, types.ErrCancelled)
}

func TestClient_UnauthorizedKeyIsPerItem(t *testing.T) {
	srv := mocks.NewDocIntelServer().WithValidKeys("KA")
	defer srv.Close()

	c := newTestClient(t, srv,
		credential.New(srv.Endpoint("a"), "KA"),
		credential.New(srv.Endpoint("b"), "wrong-key"))

	outcomes, err := c.ProcessBatchFromURLs(testutil.TestContext(t), "prebuilt-layout",
		[]string{"https://doc/0.pdf", "https://doc/1.pdf", "https://doc/2.pdf"})
	require.NoError(t, err)
	assert.True(t, outcomes[0].OK())
	assert.True(t, outcomes[2].OK())
	require.False(t, outcomes[1].OK())
	assert.Equal(t, types.ErrSubmissionFailed, outcomes[1].Err.Code)
	assert.Equal(t, http.StatusUnauthorized, outcomes[1].Err.HTTPStatus)
	assert.False(t, outcomes[1].Err.Retryable)
	testutil.AssertNotContains(t, testutil.MustJSON(outcomes), "wrong-key")
}
