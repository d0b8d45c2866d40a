package ai

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/soulchat/soulchat/internal/svc"
	"github.com/soulchat/soulchat/internal/types"
)

type StatusLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// Report configuration and breaker state per provider
func NewStatusLogic(ctx context.Context, svcCtx *svc.ServiceContext) *StatusLogic {
	return &StatusLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *StatusLogic) Status() (*types.AIStatusResponse, error) {
	statuses := l.svcCtx.Registry.Status()
	out := make([]types.ProviderStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, types.ProviderStatus{
			Id:         s.ID,
			Configured: s.Configured,
			Breaker:    s.Breaker,
		})
	}
	return &types.AIStatusResponse{
		Providers: out,
		Order:     l.svcCtx.Registry.Order(),
	}, nil
}
