package api

import (
	"net/http"
	"sync"

	"qr-serverless/app"
	"qr-serverless/internal/httpx"
)

var (
	initOnce   sync.Once
	apiRuntime *app.Runtime
	initErr    error
)

// Handler is the serverless entry point. The runtime is built on the first
// request and reused while the instance stays warm.
func Handler(w http.ResponseWriter, r *http.Request) {
	initOnce.Do(func() {
		apiRuntime, initErr = app.Build(app.Options{LoadDotEnv: false})
	})

	if initErr != nil {
		httpx.WriteInternal(w)
		return
	}

	apiRuntime.Handler.ServeHTTP(w, r)
}
