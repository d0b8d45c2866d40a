package ai

import (
	"net/http"

	"github.com/soulchat/soulchat/internal/httputil"
	"github.com/soulchat/soulchat/internal/logic/ai"
	"github.com/soulchat/soulchat/internal/svc"
)

// Report configuration and breaker state per provider
func StatusHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := ai.NewStatusLogic(r.Context(), svcCtx)
		resp, err := l.Status()
		if err != nil {
			httputil.Error(w, err)
		} else {
			httputil.OkJSON(w, resp)
		}
	}
}
