package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"ciphera/internal/domain"
	"ciphera/internal/envelope"
	"ciphera/internal/logging"
)

// --- Flags ---

var (
	port          int    // listen port
	enableLogging bool   // logging toggle
	logLevel      string // logrus level name
	logJSON       bool   // JSON-format logs
)

// --- Constants ---

// Networking and server limits.
const (
	defaultPort    = 8080
	minPort        = 0
	maxPort        = 65535
	readHeaderTO   = 5 * time.Second
	readTO         = 10 * time.Second
	writeTO        = 10 * time.Second
	idleTO         = 60 * time.Second
	maxRequestBody = 1 << 20 // 1 MiB cap for incoming JSON bodies
)

// Relay policy limits.
const (
	maxPerUserQueue = 1000             // cap messages kept per user
	maxCipherBytes  = 64 << 10         // 64 KiB max cipher payload
	maxFutureSkew   = 10 * time.Minute // reject timestamps too far in the future
)

// Context key for request ID.
type ctxKey string

const ctxKeyReqID ctxKey = "reqid"

// --- Types & Constructors ---

// state holds registered prekey bundles and per-user message queues.
type state struct {
	mu      sync.RWMutex
	bundles map[domain.Username]domain.PreKeyBundle
	queues  map[domain.Username][]domain.Envelope
	log     *logrus.Logger
}

// newState initialises an empty relay state.
func newState(log *logrus.Logger) *state {
	return &state{
		bundles: make(map[domain.Username]domain.PreKeyBundle),
		queues:  make(map[domain.Username][]domain.Envelope),
		log:     log,
	}
}

// loggingResponseWriter captures status code and byte count for access logs.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

// --- Middleware ---

// withRecover wraps a handler to convert panics into 500 responses.
func (s *state) withRecover(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				writeErr(w, http.StatusInternalServerError, "internal error")
				if enableLogging {
					s.log.WithField("err", rec).Error("panic")
				}
			}
		}()
		h(w, r)
	}
}

// withReqID ensures each request has an ID for tracing.
func withReqID(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), ctxKeyReqID, id)
		h(w, r.WithContext(ctx))
	}
}

// withLogging logs method, path, remote, status, bytes, duration and request ID.
func (s *state) withLogging(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !enableLogging {
			h(w, r)
			return
		}
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w}
		h(lrw, r)
		s.log.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"remote": clientIP(r),
			"status": lrw.status,
			"bytes":  lrw.bytes,
			"dur":    time.Since(start),
			"reqid":  requestIDFromCtx(r.Context()),
		}).Info("access")
	}
}

// chain composes middlewares in order.
func chain(h http.HandlerFunc, mws ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// --- Utilities ---

// WriteHeader records the status code then forwards to the underlying writer.
func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

// Write records the bytes written and defaults status to 200 if unset.
func (lrw *loggingResponseWriter) Write(p []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(p)
	lrw.bytes += n
	return n, err
}

// isZero32 checks whether a 32-byte slice is all zeros in constant time.
func isZero32(b []byte) bool {
	if len(b) != 32 {
		return false
	}
	var zero [32]byte
	return subtle.ConstantTimeCompare(b, zero[:]) == 1
}

// writeJSON encodes v as JSON with no HTML escaping.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("encode error: %v", err), http.StatusInternalServerError)
	}
}

// writeErr writes a JSON error object with a given status code.
func writeErr(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// parseLimit parses the optional "limit" query parameter.
func parseLimit(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid limit")
	}
	return n, nil
}

// clientIP extracts the client IP from headers or RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := indexByte(xff, ','); i >= 0 {
			return trimSpace(xff[:i])
		}
		return trimSpace(xff)
	}
	if xr := r.Header.Get("X-Real-IP"); xr != "" {
		return xr
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// requestIDFromCtx returns the request ID if present.
func requestIDFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyReqID).(string); ok {
		return v
	}
	return ""
}

// Small helpers without extra imports.
func indexByte(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}
func trimSpace(s string) string {
	for len(s) > 0 && (s[0] == ' ' || s[0] == '\t') {
		s = s[1:]
	}
	for len(s) > 0 && (s[len(s)-1] == ' ' || s[len(s)-1] == '\t') {
		s = s[:len(s)-1]
	}
	return s
}

// --- Handlers ---

// handleRegister stores an incoming PreKeyBundle (POST /register).
func (s *state) handleRegister(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var bundle domain.PreKeyBundle
	if err := dec.Decode(&bundle); err != nil {
		writeErr(w, http.StatusBadRequest, "bad request")
		return
	}
	if bundle.Username == "" {
		writeErr(w, http.StatusBadRequest, "username required")
		return
	}
	if bundle.Canary == "" {
		writeErr(w, http.StatusBadRequest, "canary required")
		return
	}
	if bundle.ServerURL == "" {
		writeErr(w, http.StatusBadRequest, "server url required")
		return
	}

	s.mu.Lock()
	s.bundles[bundle.Username] = bundle
	s.mu.Unlock()

	if enableLogging {
		s.log.WithFields(logrus.Fields{
			"user":             bundle.Username.String(),
			"identity_key_set": !isZero32(bundle.IdentityKey[:]),
			"signing_key_set":  !isZero32(bundle.SigningKey[:]),
			"spk_id":           bundle.SignedPreKey.ID,
			"one_time_present": bundle.OneTimePreKey != nil,
			"reqid":            requestIDFromCtx(r.Context()),
		}).Info("register")
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGet returns a stored PreKeyBundle (GET /prekey/{username}).
func (s *state) handleGet(w http.ResponseWriter, r *http.Request) {
	usernameValue := domain.Username(r.PathValue("username"))
	if usernameValue == "" {
		writeErr(w, http.StatusBadRequest, "username required")
		return
	}

	s.mu.RLock()
	bundle, ok := s.bundles[usernameValue]
	s.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}

	if enableLogging {
		s.log.WithFields(logrus.Fields{
			"user":             usernameValue.String(),
			"spk_id":           bundle.SignedPreKey.ID,
			"one_time_present": bundle.OneTimePreKey != nil,
			"reqid":            requestIDFromCtx(r.Context()),
		}).Info("prekey_fetch")
	}
	writeJSON(w, bundle)
}

// handleAccountCanary returns the stored canary (GET /account/{user}/canary).
func (s *state) handleAccountCanary(w http.ResponseWriter, r *http.Request) {
	usernameValue := domain.Username(r.PathValue("user"))
	if usernameValue == "" {
		writeErr(w, http.StatusBadRequest, "username required")
		return
	}

	s.mu.RLock()
	bundle, ok := s.bundles[usernameValue]
	s.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, map[string]string{"canary": bundle.Canary})
}

// handleEnqueue enqueues a new Envelope (POST /msg/{user}). The request body
// is the canonical wire encoding from internal/envelope, not JSON; the
// recipient comes from the URL path, since the wire encoding only names the
// sender.
func (s *state) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	usernameValue := domain.Username(r.PathValue("user"))
	if usernameValue == "" {
		writeErr(w, http.StatusBadRequest, "recipient required")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "bad request")
		return
	}

	env, err := envelope.Unmarshal(body)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedVersion) {
			writeErr(w, http.StatusBadRequest, "unsupported version")
		} else {
			writeErr(w, http.StatusBadRequest, "bad request")
		}
		return
	}
	env.Recipient = usernameValue

	if len(env.Ciphertext) > maxCipherBytes {
		writeErr(w, http.StatusRequestEntityTooLarge, "cipher too large")
		return
	}
	if env.TimestampUnixMilli == 0 {
		env.TimestampUnixMilli = time.Now().UnixMilli()
	} else if time.UnixMilli(env.TimestampUnixMilli).After(time.Now().Add(maxFutureSkew)) {
		writeErr(w, http.StatusBadRequest, "timestamp in future")
		return
	}

	s.mu.Lock()
	queue := append(s.queues[usernameValue], env)
	if len(queue) > maxPerUserQueue {
		queue = queue[len(queue)-maxPerUserQueue:]
	}
	s.queues[usernameValue] = queue
	queueLength := len(queue)
	s.mu.Unlock()

	if enableLogging {
		s.log.WithFields(logrus.Fields{
			"queue_user":   usernameValue.String(),
			"sender":       env.Sender.String(),
			"recipient":    env.Recipient.String(),
			"cipher_bytes": len(env.Ciphertext),
			"has_prekey":   env.PreKeyMessage != nil,
			"queue_len":    queueLength,
			"reqid":        requestIDFromCtx(r.Context()),
		}).Info("enqueue")
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleFetch fetches queued Envelopes (GET /msg/{user}?limit=N), returned
// as a JSON array of wire-encoded frames (each frame base64 inside the
// array, since a raw byte slice marshals that way) rather than JSON
// Envelope objects.
func (s *state) handleFetch(w http.ResponseWriter, r *http.Request) {
	usernameValue := domain.Username(r.PathValue("user"))

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "bad limit")
		return
	}

	s.mu.RLock()
	queue := s.queues[usernameValue]
	if limit == 0 || limit > len(queue) {
		limit = len(queue)
	}
	out := make([]domain.Envelope, limit)
	copy(out, queue[:limit])
	available := len(queue)
	s.mu.RUnlock()

	frames := make([][]byte, 0, len(out))
	for _, env := range out {
		frame, err := envelope.Marshal(env)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, "encode error")
			return
		}
		frames = append(frames, frame)
	}

	writeJSON(w, frames)

	if enableLogging {
		s.log.WithFields(logrus.Fields{
			"user":      usernameValue.String(),
			"limit":     limit,
			"available": available,
			"reqid":     requestIDFromCtx(r.Context()),
		}).Info("fetch")
	}
}

// handleAck acknowledges and drops N messages (POST /msg/{user}/ack).
func (s *state) handleAck(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	usernameValue := domain.Username(r.PathValue("user"))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var ack struct {
		Count int `json:"count"`
	}
	if err := dec.Decode(&ack); err != nil || ack.Count < 0 {
		writeErr(w, http.StatusBadRequest, "bad request")
		return
	}

	s.mu.Lock()
	if ack.Count > len(s.queues[usernameValue]) {
		ack.Count = len(s.queues[usernameValue])
	}
	s.queues[usernameValue] = s.queues[usernameValue][ack.Count:]
	remaining := len(s.queues[usernameValue])
	s.mu.Unlock()

	if enableLogging {
		s.log.WithFields(logrus.Fields{
			"user":      usernameValue.String(),
			"drop":      ack.Count,
			"remaining": remaining,
			"reqid":     requestIDFromCtx(r.Context()),
		}).Info("ack")
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Main ---

// main starts the HTTP server and registers handlers.
func main() {
	pflag.IntVarP(&port, "port", "p", defaultPort, "port to listen on")
	pflag.BoolVar(&enableLogging, "log", false, "enable access logging")
	pflag.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pflag.BoolVar(&logJSON, "log-json", false, "emit logs as JSON")
	pflag.Parse()

	if port <= minPort || port > maxPort {
		port = defaultPort
	}

	log := logging.New(logLevel, logJSON)

	s := newState(log)
	mux := http.NewServeMux()

	mux.HandleFunc(
		"POST /register",
		chain(s.handleRegister, s.withRecover, withReqID, s.withLogging),
	)
	mux.HandleFunc(
		"GET /prekey/{username}",
		chain(s.handleGet, s.withRecover, withReqID, s.withLogging),
	)
	mux.HandleFunc(
		"GET /account/{user}/canary",
		chain(s.handleAccountCanary, s.withRecover, withReqID, s.withLogging),
	)
	mux.HandleFunc(
		"POST /msg/{user}",
		chain(s.handleEnqueue, s.withRecover, withReqID, s.withLogging),
	)
	mux.HandleFunc(
		"GET /msg/{user}",
		chain(s.handleFetch, s.withRecover, withReqID, s.withLogging),
	)
	mux.HandleFunc(
		"POST /msg/{user}/ack",
		chain(s.handleAck, s.withRecover, withReqID, s.withLogging),
	)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTO,
		ReadTimeout:       readTO,
		WriteTimeout:      writeTO,
		IdleTimeout:       idleTO,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("relay listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("relay failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
