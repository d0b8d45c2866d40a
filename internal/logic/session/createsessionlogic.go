package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/soulchat/soulchat/internal/db"
	"github.com/soulchat/soulchat/internal/svc"
	"github.com/soulchat/soulchat/internal/types"
)

type CreateSessionLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// Create a chat session with a character snapshot
func NewCreateSessionLogic(ctx context.Context, svcCtx *svc.ServiceContext) *CreateSessionLogic {
	return &CreateSessionLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *CreateSessionLogic) CreateSession(req *types.CreateSessionRequest) (*types.CreateSessionResponse, error) {
	name := strings.TrimSpace(req.CharacterName)
	if name == "" {
		return nil, errors.New("characterName is required")
	}

	sess := &db.ChatSession{
		CharacterName:        name,
		CharacterDescription: req.CharacterDescription,
		PersonalityPreset:    req.PersonalityPreset,
		CurrentMood:          req.CurrentMood,
		StoryWorld:           req.StoryWorld,
		CharacterBackground:  req.CharacterBackground,
		HasMission:           req.HasMission,
		CurrentMission:       req.CurrentMission,
		UseRealTime:          true,
		TimeSetting:          req.TimeSetting,
	}
	if req.UseRealTime != nil {
		sess.UseRealTime = *req.UseRealTime
	}
	if req.Personality != nil {
		data, err := json.Marshal(req.Personality)
		if err != nil {
			return nil, err
		}
		sess.PersonalityData = data
	}
	if len(req.Examples) > 0 {
		data, err := json.Marshal(req.Examples)
		if err != nil {
			return nil, err
		}
		sess.Examples = data
	}

	if err := l.svcCtx.Store.CreateSession(l.ctx, sess); err != nil {
		l.Errorf("creating session: %v", err)
		return nil, err
	}

	return &types.CreateSessionResponse{
		Id:            sess.ID,
		CharacterName: sess.CharacterName,
		CreatedAt:     sess.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}
