package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/derktes/lirc2broadlink/broadlink"
)

const serialLines = `{"frame":{"resolution":20,"data":[[452,226],[29,28],[29,84],[29,2000]]}}
garbage
{"collectorId":"ignored","frame":{"resolution":20,"data":[[452,226],[29,84]]}}
`

func hostPort(t *testing.T, rawURL string) (string, int) {
	t.Helper()
	host, port, err := net.SplitHostPort(strings.TrimPrefix(rawURL, "http://"))
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	return host, p
}

func TestConsumePublishes(t *testing.T) {
	var mu sync.Mutex
	var received []taggedFrame
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ir/frame", r.URL.Path)
		var tf taggedFrame
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&tf))
		mu.Lock()
		received = append(received, tf)
		mu.Unlock()
	}))
	defer srv.Close()
	host, port := hostPort(t, srv.URL)

	core, logs := observer.New(zapcore.WarnLevel)
	c, err := newCollector(Config{SerialPort: "/dev/null", ServerHost: host, ServerPort: port, CollectorID: "den"}, zap.New(core), io.Discard)
	require.NoError(t, err)
	require.NoError(t, c.consume(context.Background(), strings.NewReader(serialLines)))

	require.Len(t, received, 2)
	for _, tf := range received {
		assert.Equal(t, "den", tf.CollectorID)
		assert.Equal(t, 20, tf.Frame.Resolution)
	}
	assert.Equal(t, 1, logs.FilterMessage("skipping malformed frame").Len())
}

func TestConsumePublishFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()
	host, port := hostPort(t, srv.URL)

	core, logs := observer.New(zapcore.WarnLevel)
	c, err := newCollector(Config{ServerHost: host, ServerPort: port, CollectorID: "den"}, zap.New(core), io.Discard)
	require.NoError(t, err)
	require.NoError(t, c.consume(context.Background(), strings.NewReader(serialLines)))
	assert.Equal(t, 2, logs.FilterMessage("publish failed").Len())
}

func TestConsumePrint(t *testing.T) {
	var out bytes.Buffer
	c, err := newCollector(Config{Print: true, Repeat: 2}, zaptest.NewLogger(t), &out)
	require.NoError(t, err)
	require.NoError(t, c.consume(context.Background(), strings.NewReader(serialLines)))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	pkt, err := broadlink.DecodeBase64(lines[0])
	require.NoError(t, err)
	assert.Equal(t, uint8(2), pkt.Repeat)
	require.Len(t, pkt.Durations, 8)
	assert.InDelta(t, 9040, pkt.Durations[0], 31)
	assert.InDelta(t, 40000, pkt.Durations[7], 31)
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, Config{CollectorID: "x"}.validate())
	assert.Error(t, Config{SerialPort: "/dev/ttyUSB0"}.validate())
	assert.NoError(t, Config{SerialPort: "/dev/ttyUSB0", Print: true}.validate())
	assert.ErrorIs(t, Config{SerialPort: "/dev/ttyUSB0", CollectorID: "x", Repeat: 256}.validate(), broadlink.ErrRepeatCountOverflow)
}

func TestFrameTrain(t *testing.T) {
	f := frameData{Resolution: 10, Data: [][]int{{1, 2}, {3, 4}}}
	train, err := f.train()
	require.NoError(t, err)
	assert.Equal(t, int64(10), train[0].On)
	assert.Equal(t, int64(40), train[1].Off)

	_, err = (&frameData{Resolution: 10, Data: [][]int{{1}}}).train()
	assert.Error(t, err)
	_, err = (&frameData{}).train()
	assert.Error(t, err)
}
