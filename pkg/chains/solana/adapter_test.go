package solana

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnidex-labs/swapcore/pkg/constants"
	"github.com/omnidex-labs/swapcore/pkg/swaperr"
	"github.com/omnidex-labs/swapcore/pkg/types"
)

// fakeRPC stubs the two RPC calls the adapter makes.
type fakeRPC struct {
	blockhash    solanago.Hash
	blockhashErr error
	statuses     []*rpc.SignatureStatusesResult // returned in order, last repeats
	statusCalls  int
}

func (f *fakeRPC) GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	if f.blockhashErr != nil {
		return nil, f.blockhashErr
	}
	return &rpc.GetLatestBlockhashResult{
		Value: &rpc.LatestBlockhashResult{Blockhash: f.blockhash},
	}, nil
}

func (f *fakeRPC) GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, sigs ...solanago.Signature) (*rpc.GetSignatureStatusesResult, error) {
	idx := f.statusCalls
	f.statusCalls++
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	if idx < 0 {
		return &rpc.GetSignatureStatusesResult{Value: []*rpc.SignatureStatusesResult{nil}}, nil
	}
	return &rpc.GetSignatureStatusesResult{
		Value: []*rpc.SignatureStatusesResult{f.statuses[idx]},
	}, nil
}

// fakeSolanaSigner records every wallet round-trip.
type fakeSolanaSigner struct {
	address string
	sig     solanago.Signature
	err     error
	sent    []*solanago.Transaction
}

func (f *fakeSolanaSigner) Address() string { return f.address }

func (f *fakeSolanaSigner) SignAndSendTransaction(ctx context.Context, tx *solanago.Transaction) (solanago.Signature, error) {
	f.sent = append(f.sent, tx)
	if f.err != nil {
		return solanago.Signature{}, f.err
	}
	return f.sig, nil
}

func (f *fakeSolanaSigner) SignTransaction(ctx context.Context, tx *solanago.Transaction) (*solanago.Transaction, error) {
	return tx, nil
}

func newTestAdapter(client rpcAPI) *Adapter {
	return &Adapter{
		client:           client,
		confirmInterval:  time.Millisecond,
		confirmMaxChecks: 5,
		logger:           slog.Default(),
	}
}

func buildTransaction(t *testing.T, version solanago.MessageVersion) string {
	t.Helper()

	payer := solanago.NewWallet().PublicKey()
	instr := solanago.NewInstruction(
		solanago.SystemProgramID,
		solanago.AccountMetaSlice{solanago.NewAccountMeta(payer, true, true)},
		[]byte{1, 2, 3},
	)
	tx, err := solanago.NewTransaction(
		[]solanago.Instruction{instr},
		solanago.Hash{},
		solanago.TransactionPayer(payer),
	)
	require.NoError(t, err)
	tx.Message.SetVersion(version)

	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	return base58.Encode(raw)
}

func solanaPayload(tx string) *types.UnsignedPayload {
	return &types.UnsignedPayload{
		Ecosystem: constants.EcosystemSolana,
		Solana:    &types.SolanaPayload{Base58Tx: tx},
	}
}

func TestBuildAndSignVersioned(t *testing.T) {
	freshHash := solanago.Hash(solanago.NewWallet().PublicKey())
	client := &fakeRPC{blockhash: freshHash}
	a := newTestAdapter(client)
	signer := &fakeSolanaSigner{sig: solanago.Signature{}}

	payload := solanaPayload(buildTransaction(t, solanago.MessageVersionV0))

	sig, err := a.BuildAndSign(context.Background(), constants.ChainIndexSolana, payload, signer)
	require.NoError(t, err)
	assert.NotEmpty(t, sig)

	require.Len(t, signer.sent, 1, "a versioned payload needs no fallback")
	assert.Equal(t, freshHash, signer.sent[0].Message.RecentBlockhash, "blockhash must be refreshed before signing")
}

func TestBuildAndSignLegacyFallback(t *testing.T) {
	client := &fakeRPC{}
	a := newTestAdapter(client)
	signer := &fakeSolanaSigner{}

	payload := solanaPayload(buildTransaction(t, solanago.MessageVersionLegacy))

	_, err := a.BuildAndSign(context.Background(), constants.ChainIndexSolana, payload, signer)
	require.NoError(t, err)

	// The versioned decode fails before reaching the wallet, so the wallet
	// sees exactly one transaction, from the legacy path.
	require.Len(t, signer.sent, 1)
}

func TestBuildAndSignRejectionNeverFallsBack(t *testing.T) {
	client := &fakeRPC{}
	a := newTestAdapter(client)
	signer := &fakeSolanaSigner{err: &swaperr.ProviderError{Code: 4001, Message: "User rejected the request."}}

	payload := solanaPayload(buildTransaction(t, solanago.MessageVersionV0))

	_, err := a.BuildAndSign(context.Background(), constants.ChainIndexSolana, payload, signer)
	require.Error(t, err)
	assert.Equal(t, swaperr.UserRejected, swaperr.KindOf(err))
	assert.Len(t, signer.sent, 1, "a rejection must not retry through the legacy path")
}

func TestBuildAndSignKeepsPayloadBlockhashOnRefreshFailure(t *testing.T) {
	client := &fakeRPC{blockhashErr: errors.New("rpc unreachable")}
	a := newTestAdapter(client)
	signer := &fakeSolanaSigner{}

	payload := solanaPayload(buildTransaction(t, solanago.MessageVersionV0))

	_, err := a.BuildAndSign(context.Background(), constants.ChainIndexSolana, payload, signer)
	require.NoError(t, err, "a failed blockhash refresh is not fatal")
	require.Len(t, signer.sent, 1)
	assert.Equal(t, solanago.Hash{}, signer.sent[0].Message.RecentBlockhash)
}

func TestBuildAndSignInvalidBase58(t *testing.T) {
	a := newTestAdapter(&fakeRPC{})

	_, err := a.BuildAndSign(context.Background(), constants.ChainIndexSolana,
		solanaPayload("not-base58-0OIl"), &fakeSolanaSigner{})
	require.Error(t, err)
	assert.Equal(t, swaperr.BuildTransactionFailed, swaperr.KindOf(err))
}

func TestBuildAndSignMissingPayload(t *testing.T) {
	a := newTestAdapter(&fakeRPC{})

	_, err := a.BuildAndSign(context.Background(), constants.ChainIndexSolana,
		&types.UnsignedPayload{Ecosystem: constants.EcosystemSolana}, &fakeSolanaSigner{})
	require.Error(t, err)
	assert.Equal(t, swaperr.BuildTransactionFailed, swaperr.KindOf(err))
}

func TestAwaitFinalityConfirmed(t *testing.T) {
	client := &fakeRPC{
		statuses: []*rpc.SignatureStatusesResult{
			nil, // not seen yet
			{ConfirmationStatus: rpc.ConfirmationStatusProcessed},
			{ConfirmationStatus: rpc.ConfirmationStatusConfirmed},
		},
	}
	a := newTestAdapter(client)

	err := a.AwaitFinality(context.Background(), constants.ChainIndexSolana, solanago.Signature{}.String())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, client.statusCalls, 3)
}

func TestAwaitFinalityOnChainFailure(t *testing.T) {
	client := &fakeRPC{
		statuses: []*rpc.SignatureStatusesResult{
			{Err: map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}}},
		},
	}
	a := newTestAdapter(client)

	err := a.AwaitFinality(context.Background(), constants.ChainIndexSolana, solanago.Signature{}.String())
	require.Error(t, err)
	assert.Equal(t, swaperr.TransactionFailedOnChain, swaperr.KindOf(err))
}

func TestAwaitFinalityTimeout(t *testing.T) {
	client := &fakeRPC{
		statuses: []*rpc.SignatureStatusesResult{
			{ConfirmationStatus: rpc.ConfirmationStatusProcessed},
		},
	}
	a := newTestAdapter(client)

	err := a.AwaitFinality(context.Background(), constants.ChainIndexSolana, solanago.Signature{}.String())
	require.Error(t, err)
	assert.Equal(t, swaperr.ConfirmationTimeout, swaperr.KindOf(err))
}

func TestAwaitFinalityInvalidSignature(t *testing.T) {
	a := newTestAdapter(&fakeRPC{})

	err := a.AwaitFinality(context.Background(), constants.ChainIndexSolana, "???")
	require.Error(t, err)
	assert.Equal(t, swaperr.Internal, swaperr.KindOf(err))
}
