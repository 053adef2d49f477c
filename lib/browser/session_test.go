package browser

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func testContext(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// startHeadlessShell runs chromedp's headless-shell image and returns
// its devtools URL. Requires docker; gated behind BROWSER_TESTS.
func startHeadlessShell(t *testing.T, ctx context.Context) string {
	t.Helper()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "chromedp/headless-shell:latest",
			ExposedPorts: []string{"9222/tcp"},
			WaitingFor:   wait.ForListeningPort("9222/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "9222")
	require.NoError(t, err)

	return fmt.Sprintf("ws://%s:%s", host, port.Port())
}

func TestSessionAppliesStealthProfile(t *testing.T) {
	if os.Getenv("BROWSER_TESTS") == "" {
		t.Skip("set BROWSER_TESTS=1 to run browser integration tests")
	}

	ctx, cancel := testContext(t)
	defer cancel()

	sess, err := Open(ctx, Options{
		Profile:   DefaultProfile(),
		Headless:  true,
		RemoteURL: startHeadlessShell(t, ctx),
		Deadline:  45 * time.Second,
	})
	require.NoError(t, err)
	defer sess.Close()

	err = chromedp.Run(sess.Context(), chromedp.Navigate("about:blank"))
	require.NoError(t, err)

	var webdriver bool
	err = chromedp.Run(sess.Context(),
		chromedp.Evaluate(`navigator.webdriver === undefined`, &webdriver))
	require.NoError(t, err)
	require.True(t, webdriver, "navigator.webdriver must be scrubbed")

	var language string
	err = chromedp.Run(sess.Context(),
		chromedp.Evaluate(`navigator.language`, &language))
	require.NoError(t, err)
	require.Equal(t, "en-US", language)

	var hasChrome bool
	err = chromedp.Run(sess.Context(),
		chromedp.Evaluate(`typeof window.chrome === 'object' && window.chrome !== null`, &hasChrome))
	require.NoError(t, err)
	require.True(t, hasChrome, "window.chrome must exist")
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	cancelled := 0
	sess := &Session{
		ID:      "test",
		ctx:     context.Background(),
		cancels: []context.CancelFunc{func() { cancelled++ }, func() { cancelled++ }},
	}

	sess.Close()
	sess.Close()
	sess.Close()
	require.Equal(t, 2, cancelled)
}

func TestCookieRoundTripFile(t *testing.T) {
	// file-level behavior only, no browser involved
	path := t.TempDir() + "/cookies.json"

	sess := &Session{ID: "test", ctx: context.Background()}
	loaded, err := sess.LoadCookies(path, time.Hour)
	require.NoError(t, err)
	require.False(t, loaded, "missing cookie jar must not be an error")
}

func TestLoadCookiesRejectsExpiredJar(t *testing.T) {
	path := t.TempDir() + "/cookies.json"
	stale := fmt.Sprintf(`{"cookies":[{"name":"a","value":"b"}],"timestamp":%q}`,
		time.Now().Add(-100*24*time.Hour).Format(time.RFC3339))
	require.NoError(t, os.WriteFile(path, []byte(stale), 0o600))

	sess := &Session{ID: "test", ctx: context.Background()}
	loaded, err := sess.LoadCookies(path, DefaultCookieMaxAge)
	require.NoError(t, err)
	require.False(t, loaded)

	// expired jars are deleted on sight
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}
