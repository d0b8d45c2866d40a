package proactive

import (
	"net/http"

	"github.com/soulchat/soulchat/internal/httputil"
	"github.com/soulchat/soulchat/internal/logic/proactive"
	"github.com/soulchat/soulchat/internal/svc"
)

// Kick off an out-of-cycle idle-session scan
func TriggerHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := proactive.NewTriggerLogic(r.Context(), svcCtx)
		resp, err := l.Trigger()
		if err != nil {
			httputil.Error(w, err)
		} else {
			httputil.OkJSON(w, resp)
		}
	}
}
