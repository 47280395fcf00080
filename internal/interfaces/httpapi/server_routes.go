package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerSelectionRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/selections", handler.SelectCandidates)
	mux.HandleFunc("POST /v1/rounds/{round}/selection", handler.SelectRound)
	mux.HandleFunc("GET /v1/rounds/{round}/selection", handler.GetRoundSelection)
	mux.HandleFunc("GET /v1/rounds/{round}/selection.csv", handler.ExportRoundSelectionCSV)
	mux.HandleFunc("POST /v1/rounds/{round}/evaluation", handler.EvaluateRound)
	mux.HandleFunc("POST /v1/backtests", handler.RunBacktest)
}
