package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/soulchat/soulchat/internal/svc"
	"github.com/soulchat/soulchat/internal/types"
)

type EmotionLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// Analyze the emotional tone of a piece of text
func NewEmotionLogic(ctx context.Context, svcCtx *svc.ServiceContext) *EmotionLogic {
	return &EmotionLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *EmotionLogic) Emotion(req *types.EmotionRequest) (*types.EmotionResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, errors.New("text is required")
	}

	a := l.svcCtx.Orchestrator.AnalyzeText(req.Text)
	return &types.EmotionResponse{
		PrimaryEmotion: a.PrimaryEmotion,
		Confidence:     a.Confidence,
		Emotions:       a.Emotions,
		Sentiment: types.EmotionSentiment{
			Polarity:     a.Sentiment.Polarity,
			Subjectivity: a.Sentiment.Subjectivity,
		},
		ModelUsed:    a.ModelUsed,
		ProcessingMs: a.ProcessingMS,
	}, nil
}
