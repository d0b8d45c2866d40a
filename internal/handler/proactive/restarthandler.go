package proactive

import (
	"net/http"

	"github.com/soulchat/soulchat/internal/httputil"
	"github.com/soulchat/soulchat/internal/logic/proactive"
	"github.com/soulchat/soulchat/internal/svc"
)

// Restart the proactive scheduler
func RestartHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := proactive.NewRestartLogic(r.Context(), svcCtx)
		resp, err := l.Restart()
		if err != nil {
			httputil.Error(w, err)
		} else {
			httputil.OkJSON(w, resp)
		}
	}
}
