package block

import (
	"context"
	"testing"
	"time"

	"p2plend/core"

	"github.com/stretchr/testify/assert"
)

func TestBlockService(t *testing.T) {
	cfg := &core.Config{App: core.App{Genesis: 1603366002, SecondsPerBlock: 15}}
	s := New(cfg)

	current, err := s.CurrentBlock(context.Background())
	assert.Nil(t, err)
	assert.True(t, current > 0)

	b, err := s.(*service).GetBlock(context.Background(), time.Unix(cfg.App.Genesis+30, 0))
	assert.Nil(t, err)
	assert.EqualValues(t, 2, b)
}
