package oracle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"p2plend/core"
	"p2plend/internal/block"
	"p2plend/pkg/id"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cDAI = common.HexToAddress("0xc2")

type countingOracle struct {
	calls int32
	price decimal.Decimal
	err   error
}

func (o *countingOracle) GetUnderlyingPrice(_ context.Context, _ common.Address) (decimal.Decimal, error) {
	atomic.AddInt32(&o.calls, 1)
	return o.price, o.err
}

func TestCachePerBlock(t *testing.T) {
	ctx := context.Background()
	blocks := block.NewManual(10)
	source := &countingOracle{price: decimal.NewFromFloat(1.01)}
	oracle := Cache(source, blocks, 16)

	for i := 0; i < 3; i++ {
		price, err := oracle.GetUnderlyingPrice(ctx, cDAI)
		require.Nil(t, err)
		assert.True(t, price.Equal(decimal.NewFromFloat(1.01)))
	}
	assert.EqualValues(t, 1, source.calls)

	source.price = decimal.NewFromFloat(0.99)
	blocks.Advance(1)
	price, err := oracle.GetUnderlyingPrice(ctx, cDAI)
	require.Nil(t, err)
	assert.True(t, price.Equal(decimal.NewFromFloat(0.99)))
	assert.EqualValues(t, 2, source.calls)
}

func TestCacheSkipsMissingPrices(t *testing.T) {
	ctx := context.Background()
	source := &countingOracle{}
	oracle := Cache(source, block.NewManual(1), 16)

	price, err := oracle.GetUnderlyingPrice(ctx, cDAI)
	require.Nil(t, err)
	assert.True(t, price.IsZero())

	_, _ = oracle.GetUnderlyingPrice(ctx, cDAI)
	assert.EqualValues(t, 2, source.calls)

	source.err = errors.New("oracle down")
	_, err = oracle.GetUnderlyingPrice(ctx, cDAI)
	assert.NotNil(t, err)
}

func TestFeed(t *testing.T) {
	var requestID atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID.Store(r.Header.Get("X-Request-Id"))
		if r.URL.Path != "/api/tickers/"+cDAI.Hex() {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("not found"))
			return
		}

		_, _ = fmt.Fprintf(w, `{"market":%q,"price":"1.0003","block":12}`, cDAI.Hex())
	}))
	defer server.Close()

	feed := NewFeed(server.URL + "/")
	price, err := feed.GetUnderlyingPrice(context.Background(), cDAI)
	require.Nil(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("1.0003")))

	assert.Equal(t, "", requestID.Load())

	ctx := core.WithTraceID(context.Background(), "trace-1")
	_, err = feed.GetUnderlyingPrice(ctx, cDAI)
	require.Nil(t, err)
	assert.Equal(t, id.TraceIDFrom("trace-1:"+cDAI.Hex()), requestID.Load())

	_, err = feed.GetUnderlyingPrice(context.Background(), common.HexToAddress("0xc9"))
	assert.NotNil(t, err)
}
