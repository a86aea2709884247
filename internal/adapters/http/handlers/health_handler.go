// Package handlers agrupa os handlers HTTP do gateway e do serviço interno.
package handlers

import "net/http"

type healthBody struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// HealthHandler responde com o nome do serviço para checagens de liveness.
func HealthHandler(service string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, healthBody{Status: "ok", Service: service})
	}
}
