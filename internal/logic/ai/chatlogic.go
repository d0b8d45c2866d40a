package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/soulchat/soulchat/internal/db"
	"github.com/soulchat/soulchat/internal/svc"
	"github.com/soulchat/soulchat/internal/types"
)

type ChatLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// Generate a character reply for a session
func NewChatLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ChatLogic {
	return &ChatLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *ChatLogic) Chat(req *types.ChatRequest) (*types.ChatResponse, error) {
	message := strings.TrimSpace(req.Message)
	if req.SessionId == "" || message == "" {
		return nil, errors.New("sessionId and message are required")
	}

	sess, err := l.svcCtx.Store.GetSession(l.ctx, req.SessionId)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, errors.New("session not found")
		}
		return nil, err
	}

	// History before this turn. The new user message goes on the end of the
	// prompt itself.
	recent, err := l.svcCtx.Store.GetRecentMessages(l.ctx, sess.ID, 20)
	if err != nil {
		return nil, err
	}

	userMsg := &db.ChatMessage{
		SessionID:   sess.ID,
		Sender:      db.SenderUser,
		MessageType: "text",
		Content:     message,
	}
	if err := l.svcCtx.Store.AppendMessage(l.ctx, userMsg); err != nil {
		return nil, err
	}

	reply := l.svcCtx.Orchestrator.GenerateReply(l.ctx, sess.Character(), message, db.Turns(recent))

	aiMsg := &db.ChatMessage{
		SessionID:   sess.ID,
		Sender:      db.SenderAI,
		MessageType: "text",
		Content:     reply.Text,
		Emotion:     reply.Emotion,
	}
	if err := l.svcCtx.Store.AppendMessage(l.ctx, aiMsg); err != nil {
		l.Errorf("persisting reply for session %s: %v", sess.ID, err)
	}

	return &types.ChatResponse{
		SessionId: sess.ID,
		Text:      reply.Text,
		Emotion:   reply.Emotion,
		Metadata: types.ReplyMetadata{
			Provider:     reply.Metadata.Provider,
			Model:        reply.Metadata.Model,
			LatencyMs:    reply.Metadata.LatencyMS,
			TokensUsed:   reply.Metadata.TokensUsed,
			UsedFallback: reply.Metadata.UsedFallback,
			Emergency:    reply.Metadata.Emergency,
			Error:        reply.Metadata.Error,
		},
	}, nil
}
