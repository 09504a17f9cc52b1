package block

import (
	"context"
	"time"

	"p2plend/core"
	"p2plend/internal/block"
)

type service struct {
	config *core.Config
}

// New new block service, blocks tick every App.SecondsPerBlock since App.Genesis
func New(config *core.Config) core.IBlockService {
	return &service{
		config: config,
	}
}

// CurrentBlock current block
func (s *service) CurrentBlock(ctx context.Context) (int64, error) {
	return s.GetBlock(ctx, time.Now())
}

// GetBlock get block by time
func (s *service) GetBlock(ctx context.Context, t time.Time) (int64, error) {
	return block.CurrentBlock(t, s.config.App.SecondsPerBlock, s.config.App.Genesis)
}
