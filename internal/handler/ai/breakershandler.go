package ai

import (
	"net/http"

	"github.com/soulchat/soulchat/internal/httputil"
	"github.com/soulchat/soulchat/internal/logic/ai"
	"github.com/soulchat/soulchat/internal/svc"
)

// Expose circuit breaker snapshots for inspection
func BreakersHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := ai.NewBreakersLogic(r.Context(), svcCtx)
		resp, err := l.Breakers()
		if err != nil {
			httputil.Error(w, err)
		} else {
			httputil.OkJSON(w, resp)
		}
	}
}
