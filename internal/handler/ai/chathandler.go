package ai

import (
	"net/http"

	"github.com/soulchat/soulchat/internal/httputil"
	"github.com/soulchat/soulchat/internal/logic/ai"
	"github.com/soulchat/soulchat/internal/svc"
	"github.com/soulchat/soulchat/internal/types"
)

// Generate a character reply for a session
func ChatHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ChatRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}

		l := ai.NewChatLogic(r.Context(), svcCtx)
		resp, err := l.Chat(&req)
		if err != nil {
			httputil.Error(w, err)
		} else {
			httputil.OkJSON(w, resp)
		}
	}
}
