package proactive

import (
	"net/http"

	"github.com/soulchat/soulchat/internal/httputil"
	"github.com/soulchat/soulchat/internal/logic/proactive"
	"github.com/soulchat/soulchat/internal/svc"
)

// Read the proactive engagement configuration
func GetConfigHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := proactive.NewGetConfigLogic(r.Context(), svcCtx)
		resp, err := l.GetConfig()
		if err != nil {
			httputil.Error(w, err)
		} else {
			httputil.OkJSON(w, resp)
		}
	}
}
