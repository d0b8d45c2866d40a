package session

import (
	"context"
	"errors"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/soulchat/soulchat/internal/db"
	"github.com/soulchat/soulchat/internal/svc"
	"github.com/soulchat/soulchat/internal/types"
)

type GetMessagesLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// List a session's recent messages in chronological order
func NewGetMessagesLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetMessagesLogic {
	return &GetMessagesLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *GetMessagesLogic) GetMessages(req *types.GetMessagesRequest) (*types.GetMessagesResponse, error) {
	if req.Id == "" {
		return nil, errors.New("session id is required")
	}
	limit := req.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	if _, err := l.svcCtx.Store.GetSession(l.ctx, req.Id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, errors.New("session not found")
		}
		return nil, err
	}

	msgs, err := l.svcCtx.Store.GetRecentMessages(l.ctx, req.Id, limit)
	if err != nil {
		return nil, err
	}

	out := make([]types.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, types.ChatMessage{
			Id:          m.ID,
			SessionId:   m.SessionID,
			Sender:      m.Sender,
			MessageType: m.MessageType,
			Content:     m.Content,
			Emotion:     m.Emotion,
			IsProactive: m.IsProactive,
			CreatedAt:   m.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	return &types.GetMessagesResponse{
		SessionId: req.Id,
		Messages:  out,
	}, nil
}
