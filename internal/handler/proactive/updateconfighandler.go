package proactive

import (
	"net/http"

	"github.com/soulchat/soulchat/internal/httputil"
	"github.com/soulchat/soulchat/internal/logic/proactive"
	"github.com/soulchat/soulchat/internal/svc"
	"github.com/soulchat/soulchat/internal/types"
)

// Apply a partial update to the proactive configuration
func UpdateConfigHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.UpdateProactiveConfigRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}

		l := proactive.NewUpdateConfigLogic(r.Context(), svcCtx)
		resp, err := l.UpdateConfig(&req)
		if err != nil {
			httputil.Error(w, err)
		} else {
			httputil.OkJSON(w, resp)
		}
	}
}
