package ai

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/soulchat/soulchat/internal/ai"
	"github.com/soulchat/soulchat/internal/svc"
	"github.com/soulchat/soulchat/internal/types"
)

type BreakersLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// Expose circuit breaker snapshots for inspection
func NewBreakersLogic(ctx context.Context, svcCtx *svc.ServiceContext) *BreakersLogic {
	return &BreakersLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *BreakersLogic) Breakers() (*types.BreakersResponse, error) {
	snaps := l.svcCtx.Registry.Snapshots()
	out := make([]types.BreakerSnapshot, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, toBreakerSnapshot(s))
	}
	return &types.BreakersResponse{Breakers: out}, nil
}

func toBreakerSnapshot(s ai.BreakerSnapshot) types.BreakerSnapshot {
	out := types.BreakerSnapshot{
		Provider:          s.Provider,
		State:             s.State,
		Requests:          s.Requests,
		Failures:          s.Failures,
		ErrorPct:          s.ErrorPct,
		ErrorThresholdPct: s.ErrorThresholdPct,
		VolumeThreshold:   s.VolumeThreshold,
		ResetTimeoutSec:   s.ResetTimeoutSec,
	}
	if !s.OpenedAt.IsZero() {
		out.OpenedAt = s.OpenedAt.UTC().Format(time.RFC3339)
	}
	return out
}
