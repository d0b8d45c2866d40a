package ai

import (
	"net/http"

	"github.com/soulchat/soulchat/internal/httputil"
	"github.com/soulchat/soulchat/internal/logic/ai"
	"github.com/soulchat/soulchat/internal/svc"
	"github.com/soulchat/soulchat/internal/types"
)

// Force a provider's breaker back to CLOSED
func ResetBreakerHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ResetBreakerRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}

		l := ai.NewResetBreakerLogic(r.Context(), svcCtx)
		resp, err := l.ResetBreaker(&req)
		if err != nil {
			httputil.Error(w, err)
		} else {
			httputil.OkJSON(w, resp)
		}
	}
}
