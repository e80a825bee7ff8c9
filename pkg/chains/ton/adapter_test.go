package ton

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/omnidex-labs/swapcore/pkg/constants"
	"github.com/omnidex-labs/swapcore/pkg/swaperr"
	"github.com/omnidex-labs/swapcore/pkg/types"
)

// fakeTONSigner records sent messages.
type fakeTONSigner struct {
	addr string
	err  error
	sent []types.TONPayload
}

func (f *fakeTONSigner) Address() string { return f.addr }

func (f *fakeTONSigner) SendMessage(ctx context.Context, msg types.TONPayload) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func newTestAdapter(grace time.Duration) *Adapter {
	return &Adapter{grace: grace, logger: slog.Default()}
}

func testDestination() string {
	var data [32]byte
	return address.NewAddress(0, 0, data[:]).String()
}

func testBOC(t *testing.T) (string, *cell.Cell) {
	t.Helper()
	body := cell.BeginCell().MustStoreUInt(0x25938561, 32).EndCell()
	return base64.StdEncoding.EncodeToString(body.ToBOC()), body
}

func tonPayload(p types.TONPayload) *types.UnsignedPayload {
	return &types.UnsignedPayload{Ecosystem: constants.EcosystemTON, TON: &p}
}

func TestBuildAndSign(t *testing.T) {
	a := newTestAdapter(time.Millisecond)
	signer := &fakeTONSigner{}
	boc, body := testBOC(t)

	msgID, err := a.BuildAndSign(context.Background(), constants.ChainIndexTON, tonPayload(types.TONPayload{
		To:         testDestination(),
		Amount:     "500000000",
		PayloadBoc: boc,
	}), signer)
	require.NoError(t, err)

	assert.Equal(t, hex.EncodeToString(body.Hash()), msgID, "message id is the BOC cell hash")
	require.Len(t, signer.sent, 1)
	assert.Equal(t, "500000000", signer.sent[0].Amount)
}

func TestBuildAndSignWithoutBody(t *testing.T) {
	a := newTestAdapter(time.Millisecond)
	signer := &fakeTONSigner{}

	msgID, err := a.BuildAndSign(context.Background(), constants.ChainIndexTON, tonPayload(types.TONPayload{
		To:     testDestination(),
		Amount: "1",
	}), signer)
	require.NoError(t, err)
	assert.Equal(t, "ton-msg", msgID)
}

func TestBuildAndSignInvalidDestination(t *testing.T) {
	a := newTestAdapter(time.Millisecond)

	_, err := a.BuildAndSign(context.Background(), constants.ChainIndexTON, tonPayload(types.TONPayload{
		To:     "not-a-ton-address",
		Amount: "1",
	}), &fakeTONSigner{})
	require.Error(t, err)
	assert.Equal(t, swaperr.BuildTransactionFailed, swaperr.KindOf(err))
}

func TestBuildAndSignInvalidBOC(t *testing.T) {
	a := newTestAdapter(time.Millisecond)

	_, err := a.BuildAndSign(context.Background(), constants.ChainIndexTON, tonPayload(types.TONPayload{
		To:         testDestination(),
		Amount:     "1",
		PayloadBoc: base64.StdEncoding.EncodeToString([]byte("garbage")),
	}), &fakeTONSigner{})
	require.Error(t, err)
	assert.Equal(t, swaperr.BuildTransactionFailed, swaperr.KindOf(err))
}

func TestBuildAndSignRejection(t *testing.T) {
	a := newTestAdapter(time.Millisecond)
	signer := &fakeTONSigner{err: &swaperr.ProviderError{Code: 4001, Message: "Reject request"}}

	_, err := a.BuildAndSign(context.Background(), constants.ChainIndexTON, tonPayload(types.TONPayload{
		To:     testDestination(),
		Amount: "1",
	}), signer)
	require.Error(t, err)
	assert.Equal(t, swaperr.UserRejected, swaperr.KindOf(err))
}

func TestAwaitFinalityWaitsGracePeriod(t *testing.T) {
	grace := 50 * time.Millisecond
	a := newTestAdapter(grace)

	start := time.Now()
	err := a.AwaitFinality(context.Background(), constants.ChainIndexTON, "msg")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), grace)
}

func TestAwaitFinalityCancellable(t *testing.T) {
	a := newTestAdapter(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := a.AwaitFinality(ctx, constants.ChainIndexTON, "msg")
	require.Error(t, err)
	assert.Equal(t, swaperr.ConfirmationTimeout, swaperr.KindOf(err))
}

func TestDefaultGracePeriod(t *testing.T) {
	a := NewAdapter(nil)
	assert.Equal(t, constants.TONCompletionGracePause, a.grace)
}
