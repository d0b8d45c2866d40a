package handler

import (
	"net/http"
	"time"

	"github.com/soulchat/soulchat/internal/httputil"
	"github.com/soulchat/soulchat/internal/svc"
	"github.com/soulchat/soulchat/internal/types"
)

const version = "1.0.0"

func HealthCheckHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.OkJSON(w, &types.HealthResponse{
			Status:      "healthy",
			Version:     version,
			Connections: svcCtx.Hub.Stats().Total,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		})
	}
}
