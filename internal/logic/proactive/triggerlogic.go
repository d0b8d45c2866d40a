package proactive

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/soulchat/soulchat/internal/svc"
	"github.com/soulchat/soulchat/internal/types"
)

type TriggerLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// Kick off an out-of-cycle idle-session scan
func NewTriggerLogic(ctx context.Context, svcCtx *svc.ServiceContext) *TriggerLogic {
	return &TriggerLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *TriggerLogic) Trigger() (*types.ProactiveActionResponse, error) {
	l.Info("manual proactive scan triggered")

	// The scan paces itself between candidates, so run it off the request.
	go l.svcCtx.Scheduler.Scan(context.Background())

	return &types.ProactiveActionResponse{
		Success: true,
		Running: l.svcCtx.Scheduler.Running(),
	}, nil
}
