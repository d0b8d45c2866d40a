package proactive

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/soulchat/soulchat/internal/svc"
	"github.com/soulchat/soulchat/internal/types"
)

type RestartLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// Restart the proactive scheduler, re-reading persisted configuration
func NewRestartLogic(ctx context.Context, svcCtx *svc.ServiceContext) *RestartLogic {
	return &RestartLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *RestartLogic) Restart() (*types.ProactiveActionResponse, error) {
	if err := l.svcCtx.Scheduler.Restart(l.ctx); err != nil {
		return nil, err
	}
	return &types.ProactiveActionResponse{
		Success: true,
		Running: l.svcCtx.Scheduler.Running(),
	}, nil
}
