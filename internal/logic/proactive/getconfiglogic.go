package proactive

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/soulchat/soulchat/internal/svc"
	"github.com/soulchat/soulchat/internal/types"
)

type GetConfigLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// Read the proactive engagement configuration
func NewGetConfigLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetConfigLogic {
	return &GetConfigLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *GetConfigLogic) GetConfig() (*types.ProactiveConfigResponse, error) {
	cfg := l.svcCtx.Scheduler.Config()
	return &types.ProactiveConfigResponse{
		Config: types.ProactiveConfig{
			Enabled:             cfg.Enabled,
			IntervalMinutes:     cfg.IntervalMinutes,
			InactivityThreshold: cfg.InactivityThreshold,
			MaxMessagesPerDay:   cfg.MaxMessagesPerDay,
		},
		Running: l.svcCtx.Scheduler.Running(),
	}, nil
}
