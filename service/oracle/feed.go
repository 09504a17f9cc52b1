package oracle

import (
	"context"
	"fmt"
	"strings"

	"p2plend/core"
	"p2plend/pkg/id"
	"p2plend/pkg/resthttp"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
)

// PriceTicker price of the underlying of one market
type PriceTicker struct {
	Market string          `json:"market"`
	Price  decimal.Decimal `json:"price"`
	Block  int64           `json:"block"`
}

// Feed pulls prices from an http ticker endpoint
type Feed struct {
	endpoint string
}

// NewFeed new http price feed
func NewFeed(endpoint string) *Feed {
	return &Feed{endpoint: strings.TrimSuffix(endpoint, "/")}
}

var _ core.IOracle = (*Feed)(nil)

// GetUnderlyingPrice see core.IOracle
func (f *Feed) GetUnderlyingPrice(ctx context.Context, market common.Address) (decimal.Decimal, error) {
	ticker, err := f.PullPriceTicker(ctx, market)
	if err != nil {
		return decimal.Zero, err
	}

	return ticker.Price, nil
}

// PullPriceTicker pull price ticker of market
func (f *Feed) PullPriceTicker(ctx context.Context, market common.Address) (*PriceTicker, error) {
	url := fmt.Sprintf("%s/api/tickers/%s", f.endpoint, market.Hex())
	log := logger.FromContext(ctx).WithField("market", market.Hex())

	request := resthttp.Request(ctx)
	if traceID := core.TraceIDFromContext(ctx); traceID != "" {
		// 同一次调用内对同一 market 的请求共用 request id
		request = resthttp.WithRequestID(ctx, id.TraceIDFrom(traceID+":"+market.Hex()))
	}

	var ticker PriceTicker
	if _, err := resthttp.Execute(request, "GET", url, nil, &ticker); err != nil {
		log.WithError(err).Errorln("pull price")
		return nil, err
	}

	return &ticker, nil
}
