package server

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/derktes/lirc2broadlink/broadlink"
	"github.com/derktes/lirc2broadlink/lirc"
)

const (
	maxBodyBytes = 4 << 20
	fetchTimeout = 30 * time.Second
)

type service struct {
	cfg    Config
	db     *codeDatabase
	log    *zap.Logger
	client *http.Client
}

func newService(cfg Config, log *zap.Logger) *service {
	return &service{
		cfg:    cfg,
		db:     newDatabase(log.Named("db")),
		log:    log,
		client: &http.Client{Timeout: fetchTimeout},
	}
}

// URL patterns: [
//   /remote                    POST definition text or ?url=, GET names
//   /remote/remoteName         GET buttons
//   /remote/remoteName/button  GET one code
//   /remote/stream             websocket of stored codes
//   /ir/frame                  POST frame from a collector
// ]
func (s *service) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/remote", s.remoteHandler)
	mux.HandleFunc("/remote/", s.remoteQueryHandler)
	mux.HandleFunc("/remote/stream", s.streamHandler)
	mux.HandleFunc("/ir/frame", s.frameHandler)
	return s.requestID(mux)
}

type requestLoggerKey struct{}

// requestID tags every request with an X-Request-ID, keeping one sent by
// the client when it looks sane, and attaches a logger carrying it.
func (s *service) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if l := len(id); l < 1 || l > 64 {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)
		log := s.log.With(zap.String("request_id", id))
		if s.cfg.Debug {
			log.Debug("request", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.String("remote_addr", r.RemoteAddr))
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestLoggerKey{}, log)))
	})
}

func (s *service) logger(r *http.Request) *zap.Logger {
	if log, ok := r.Context().Value(requestLoggerKey{}).(*zap.Logger); ok {
		return log
	}
	return s.log
}

func (s *service) remoteHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.convert(w, r)
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.db.getRemoteNames())
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *service) convert(w http.ResponseWriter, r *http.Request) {
	log := s.logger(r)

	var text string
	if u := r.URL.Query().Get("url"); u != "" {
		if !s.cfg.AllowFetch {
			log.Warn("fetching disabled", zap.String("url", u))
			writeError(w, http.StatusForbidden, errors.New("fetching definitions by url is disabled"))
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), fetchTimeout)
		defer cancel()
		fetched, err := lirc.Fetch(ctx, s.client, u)
		if err != nil {
			log.Warn("fetching definition failed", zap.String("url", u), zap.Error(err))
			writeError(w, http.StatusBadGateway, err)
			return
		}
		text = fetched
	} else {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			log.Warn("error reading from request body", zap.Error(err))
			writeError(w, http.StatusBadRequest, err)
			return
		}
		text = string(body)
	}

	parser := lirc.NewParser(log.Named("lirc"))
	remotes, err := parser.Parse(text)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	results, err := broadlink.EncodeAll(r.Context(), remotes, s.cfg.EncodeConcurrency)
	if err != nil {
		log.Warn("conversion interrupted", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	resp := conversionResponse{
		Remotes:      make(remoteCodeMap, len(results)),
		Errors:       make(map[string]string),
		SkippedLines: parser.Warnings(),
	}
	for name, res := range results {
		if res.Err != nil {
			log.Warn("remote not fully converted", zap.String("remote", name), zap.Error(res.Err))
			resp.Errors[name] = res.Err.Error()
		}
		if res.Codes != nil {
			s.db.insert(name, "lirc", res.Codes)
			resp.Remotes[name] = res.Codes
		}
	}
	log.Info("definition converted", zap.Int("remotes", len(resp.Remotes)), zap.Int("failed", len(resp.Errors)))
	writeJSON(w, http.StatusOK, resp)
}

func (s *service) remoteQueryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	urlPath := strings.Trim(strings.TrimPrefix(r.URL.Path, "/remote/"), "/")
	parts := strings.SplitN(urlPath, "/", 2)
	if parts[0] == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if len(parts) == 1 {
		buttons, err := s.db.getButtons(parts[0])
		if err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeJSON(w, http.StatusOK, buttons)
		return
	}

	code, err := s.db.getCode(parts[0], parts[1])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	pkt, err := broadlink.DecodeBase64(code)
	if err != nil {
		s.logger(r).Error("stored code does not decode", zap.String("remote", parts[0]), zap.String("button", parts[1]), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, codeResponse{
		Remote: parts[0],
		Button: parts[1],
		Code:   code,
		Repeat: pkt.Repeat,
		Pulses: pkt.Pairs(),
	})
}

func (s *service) frameHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := s.logger(r)

	var tf taggedFrame
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&tf); err != nil {
		log.Warn("error unmarshaling frame", zap.Error(err))
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := tf.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if s.cfg.Debug {
		log.Debug("unmarshalled frame", zap.String("collector", tf.CollectorID), zap.Int("pairs", len(tf.Frame.Data)))
	}

	train := tf.train()
	pkt, err := broadlink.Encode(train, s.cfg.FrameRepeat)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	// stored codes must be readable by remoteQueryHandler
	if _, err := broadlink.Decode(pkt.Bytes()); err != nil {
		log.Warn("learned frame does not decode", zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	pid, value, err := decodeFrame(train)
	if err != nil {
		log.Debug("frame not decoded", zap.Stringer("protocol", pid), zap.Error(err))
		pid = protocolUnknown
	}
	button := learnedButtonName(pid, value, pkt.Bytes())

	s.db.insert(tf.CollectorID, "collector", buttonCodeMap{button: pkt.Base64()})
	log.Info("frame learned", zap.String("collector", tf.CollectorID), zap.Stringer("protocol", pid), zap.String("button", button))
	writeJSON(w, http.StatusOK, learnedFrameResponse{
		Remote:     tf.CollectorID,
		Button:     button,
		ProtocolID: pid.String(),
		Code:       pkt.Base64(),
	})
}

// learnedButtonName names a learned frame by its decoded value, or by a
// digest of the packet when the protocol is unknown.
func learnedButtonName(pid protocolID, value string, packet []byte) string {
	if pid != protocolUnknown && value != "" {
		return fmt.Sprintf("%s-%s", pid, value)
	}
	h := sha1.Sum(packet)
	return "raw-" + hex.EncodeToString(h[:4])
}

func (s *service) streamHandler(w http.ResponseWriter, r *http.Request) {
	log := s.logger(r)
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.cfg.OriginPatterns})
	if err != nil {
		log.Warn("websocket accept failed", zap.Error(err))
		return
	}
	log.Info("accepted websocket request", zap.String("remote_addr", r.RemoteAddr))
	defer log.Info("closing websocket connection", zap.String("remote_addr", r.RemoteAddr))
	defer c.Close(websocket.StatusNormalClosure, "Handler exits")

	subscriber := getSubscriberID(r.RemoteAddr)
	onNewCode, err := s.db.notify(subscriber)
	if err != nil {
		log.Debug("subscription refused", zap.Error(err))
		c.Close(websocket.StatusPolicyViolation, "Already subscribed")
		return
	}
	defer func() {
		if err := s.db.unNotify(subscriber); err != nil {
			log.Debug("unsubscribe failed", zap.Error(err))
		}
	}()

	ctx := c.CloseRead(r.Context())
	for {
		select {
		case ev := <-onNewCode:
			if err := writeEvent(ctx, c, ev); err != nil {
				log.Warn("writing event failed", zap.Error(err))
				return
			}
		case <-ctx.Done():
			log.Debug("websocket context done", zap.Error(ctx.Err()))
			return
		}
	}
}

func getSubscriberID(data string) string {
	h := sha1.Sum([]byte(data))
	return hex.EncodeToString(h[:])
}

func writeEvent(ctx context.Context, c *websocket.Conn, ev conversionEvent) error {
	ctx, cancelFunc := context.WithTimeout(ctx, 1*time.Second)
	defer cancelFunc()

	return wsjson.Write(ctx, c, ev)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		status = http.StatusRequestEntityTooLarge
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
