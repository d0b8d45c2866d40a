package ai

import (
	"net/http"

	"github.com/soulchat/soulchat/internal/httputil"
	"github.com/soulchat/soulchat/internal/logic/ai"
	"github.com/soulchat/soulchat/internal/svc"
	"github.com/soulchat/soulchat/internal/types"
)

// Analyze the emotional tone of a piece of text
func EmotionHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.EmotionRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}

		l := ai.NewEmotionLogic(r.Context(), svcCtx)
		resp, err := l.Emotion(&req)
		if err != nil {
			httputil.Error(w, err)
		} else {
			httputil.OkJSON(w, resp)
		}
	}
}
