package core

import (
	"context"
)

// IBlockService block clock, one period of interest accrual per block
type IBlockService interface {
	CurrentBlock(ctx context.Context) (int64, error)
}
