package ai

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/soulchat/soulchat/internal/svc"
	"github.com/soulchat/soulchat/internal/types"
)

type ResetBreakerLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// Force a provider's breaker back to CLOSED
func NewResetBreakerLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ResetBreakerLogic {
	return &ResetBreakerLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *ResetBreakerLogic) ResetBreaker(req *types.ResetBreakerRequest) (*types.ResetBreakerResponse, error) {
	if err := l.svcCtx.Registry.ResetBreaker(req.Provider); err != nil {
		return nil, err
	}
	l.Infof("breaker for %s reset manually", req.Provider)
	return &types.ResetBreakerResponse{
		Provider: req.Provider,
		State:    "CLOSED",
	}, nil
}
