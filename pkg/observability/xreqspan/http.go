package xreqspan

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"strings"
)

// HTTP 将 Layer 应用到 net/http 处理器。
//
// net/http 没有错误返回值，因此：
//   - 处理器正常返回视为成功，状态码取首次 WriteHeader 的值（未写时为 200）
//   - 处理器以 http.ErrAbortHandler panic 视为取消，不记录状态与错误字段
//   - 其他 panic 视为失败，记录 500 与 panic 值后原样重新 panic
//
// 请求 ID 头与传播头在响应头首次写出前追加。连接被劫持（Hijack）后
// 不再追加任何头，状态码记录劫持前已写出的值（未写时为 200）。
func (l *Layer) HTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, r := l.start(r)
		defer c.release()

		rw := &responseWriter{ResponseWriter: w, c: c, status: http.StatusOK}
		completed := false
		defer func() {
			if completed {
				return
			}
			v := recover()
			if v == nil {
				// runtime.Goexit
				return
			}
			if v != http.ErrAbortHandler {
				c.fail(v)
			}
			panic(v)
		}()

		c.advance(func(ctx context.Context) {
			next.ServeHTTP(rw, r.WithContext(ctx))
		})
		completed = true

		rw.finish()
		c.succeed(c.protocol.successStatus(rw.response()))
	})
}

// responseWriter 记录状态码，并在响应头写出前追加请求 ID 头。
type responseWriter struct {
	http.ResponseWriter
	c           *completion
	status      int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(code int) {
	// 1xx（101 除外）不是最终响应，可以出现多次
	if !w.wroteHeader && (code >= 200 || code == http.StatusSwitchingProtocols) {
		w.c.attach(w.Header())
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Flush 实现 http.Flusher。
func (w *responseWriter) Flush() {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// ReadFrom 实现 io.ReaderFrom，保留底层 writer 的 sendfile 等优化路径。
func (w *responseWriter) ReadFrom(src io.Reader) (int64, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if rf, ok := w.ResponseWriter.(io.ReaderFrom); ok {
		return rf.ReadFrom(src)
	}
	return io.Copy(w.ResponseWriter, src)
}

// Hijack 实现 http.Hijacker，供 WebSocket 升级与 CONNECT 隧道使用。
//
// 底层 writer 不支持劫持时返回 http.ErrNotSupported。
func (w *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	conn, brw, err := http.NewResponseController(w.ResponseWriter).Hijack()
	if err != nil {
		return nil, nil, err
	}
	w.wroteHeader = true
	return conn, brw, nil
}

// Unwrap 供 http.ResponseController 访问底层 ResponseWriter。
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// finish 处理器返回后调用，处理器未写任何内容时仍追加响应头。
func (w *responseWriter) finish() {
	if !w.wroteHeader {
		w.c.attach(w.Header())
	}
}

// response 以已写出的状态码、响应头和 trailer 构造响应，用于推导状态码。
func (w *responseWriter) response() *http.Response {
	h := w.Header()
	resp := &http.Response{StatusCode: w.status, Header: h}
	for k, vs := range h {
		if name, ok := strings.CutPrefix(k, http.TrailerPrefix); ok {
			if resp.Trailer == nil {
				resp.Trailer = make(http.Header)
			}
			for _, v := range vs {
				resp.Trailer.Add(name, v)
			}
		}
	}
	return resp
}
