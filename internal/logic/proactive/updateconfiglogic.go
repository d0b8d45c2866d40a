package proactive

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/soulchat/soulchat/internal/proactive"
	"github.com/soulchat/soulchat/internal/svc"
	"github.com/soulchat/soulchat/internal/types"
)

type UpdateConfigLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// Apply a partial update to the proactive configuration
func NewUpdateConfigLogic(ctx context.Context, svcCtx *svc.ServiceContext) *UpdateConfigLogic {
	return &UpdateConfigLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *UpdateConfigLogic) UpdateConfig(req *types.UpdateProactiveConfigRequest) (*types.ProactiveConfigResponse, error) {
	cfg, err := l.svcCtx.Scheduler.UpdateConfig(l.ctx, proactive.ConfigPatch{
		Enabled:             req.Enabled,
		IntervalMinutes:     req.IntervalMinutes,
		InactivityThreshold: req.InactivityThreshold,
		MaxMessagesPerDay:   req.MaxMessagesPerDay,
	})
	if err != nil {
		return nil, err
	}

	l.Infof("proactive config updated: %+v", cfg)
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
