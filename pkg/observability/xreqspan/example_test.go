package xreqspan_test

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/omeyang/xspan/pkg/observability/xlog"
	"github.com/omeyang/xspan/pkg/observability/xreqspan"
	"github.com/omeyang/xspan/pkg/observability/xspan"
)

func ExampleLayer_HTTP() {
	var buf bytes.Buffer
	logger, _, err := xlog.New().SetOutput(&buf).SetFormat("json").Build()
	if err != nil {
		panic(err)
	}

	spanner := xspan.MustSpanner(xspan.Log(logger), "request", xlog.LevelInfo)
	layer, err := xreqspan.New(spanner, xreqspan.WithInspectHeaders("Accept"))
	if err != nil {
		panic(err)
	}

	h := layer.HTTP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, _ := xreqspan.RequestInfoFromContext(r.Context())
		fmt.Println("protocol:", info.Protocol)
		fmt.Println("request id:", info.RequestID)
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(xreqspan.HeaderRequestID, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	fmt.Println("status:", rec.Code)
	fmt.Println("echoed:", rec.Header().Get(xreqspan.HeaderRequestID))
	fmt.Println("logged:", bytes.Contains(buf.Bytes(), []byte(`"http.request_id":"req-42"`)))
	// Output:
	// protocol: http
	// request id: req-42
	// status: 204
	// echoed: req-42
	// logged: true
}

func ExampleInspectHeaders() {
	h := http.Header{}
	h.Add("Accept", "text/html")
	h.Add("Accept", "application/json")
	fmt.Println(xreqspan.InspectHeaders([]string{"Accept", "Cookie"}, h))
	// Output:
	// {"accept": "text/html, application/json"}
}
