package handler

import (
	"net/http"
	"time"

	"github.com/vfg2006/traffic-advisor-api/infrastructure/database"
	"github.com/vfg2006/traffic-advisor-api/pkg/log"
)

// HealthcheckHandler responde 200 com o horário atual, ou 503 se o banco não responde
func HealthcheckHandler(conn database.Conn) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]any{
			"time":     time.Now().UTC(),
			"database": "ok",
		}

		if conn != nil {
			if err := conn.Ping(r.Context()); err != nil {
				log.ForContext(r.Context()).WithError(err).Warn("Banco de dados indisponível no healthcheck")
				status = http.StatusServiceUnavailable
				body["database"] = "unavailable"
			}
		}

		writeJSON(w, r, status, body)
	})
}
