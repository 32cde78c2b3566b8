package market

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tradeyard/tradeyard-client/tradeyardClient/db"
	tyerrors "github.com/tradeyard/tradeyard-client/tradeyardClient/errors"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/instruction"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/layout"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/localnet"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/metrics"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/store"
)

const price = 2_500_000_000

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) GetAccountData(ctx context.Context, addr solana.PublicKey) ([]byte, error) {
	args := m.Called(ctx, addr)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *mockLedger) SubmitTransaction(ctx context.Context, instructions []solana.Instruction, signers []solana.PrivateKey) (solana.Signature, error) {
	args := m.Called(ctx, instructions, signers)
	return args.Get(0).(solana.Signature), args.Error(1)
}

type mockJournal struct {
	mock.Mock
}

func (m *mockJournal) RecordOperation(op *store.Operation) error {
	return m.Called(op).Error(0)
}

func (m *mockJournal) UpdateOperationStatus(operationID, status, signature, errMsg string) error {
	return m.Called(operationID, status, signature, errMsg).Error(0)
}

func newBuilder(t *testing.T) *instruction.Builder {
	t.Helper()
	b, err := instruction.NewBuilder(solana.NewWallet().PublicKey().String(), zerolog.Nop())
	require.NoError(t, err)
	return b
}

func newJournal(t *testing.T) *db.DB {
	t.Helper()
	journal, err := db.OpenInMemoryDB(true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = journal.Close() })
	return journal
}

type marketplace struct {
	svc                *Service
	net                *localnet.Localnet
	journal            *db.DB
	registry           *prometheus.Registry
	seller             solana.PrivateKey
	buyer              solana.PrivateKey
	mint               solana.PublicKey
	sellerItemWallet   solana.PublicKey
	payment            solana.PublicKey
	buyerPaymentWallet solana.PublicKey
	buyerItemWallet    solana.PublicKey
}

func newMarketplace(t *testing.T) *marketplace {
	t.Helper()
	ctx := context.Background()
	builder := newBuilder(t)

	net := localnet.New(localnet.NewMemoryStore(), builder.ProgramID(), zerolog.Nop())
	t.Cleanup(func() { _ = net.Close() })

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	mp := &marketplace{
		net:                net,
		journal:            newJournal(t),
		registry:           reg,
		seller:             solana.NewWallet().PrivateKey,
		buyer:              solana.NewWallet().PrivateKey,
		mint:               solana.NewWallet().PublicKey(),
		sellerItemWallet:   solana.NewWallet().PublicKey(),
		payment:            solana.NewWallet().PublicKey(),
		buyerPaymentWallet: solana.NewWallet().PublicKey(),
		buyerItemWallet:    solana.NewWallet().PublicKey(),
	}
	mp.svc = NewService(builder, net, zerolog.Nop(), WithJournal(mp.journal), WithMetrics(m))

	addrs, err := mp.svc.Addresses(mp.mint)
	require.NoError(t, err)
	paymentMint := solana.NewWallet().PublicKey()

	require.NoError(t, net.Airdrop(ctx, mp.seller.PublicKey(), 1_000_000_000))
	require.NoError(t, net.Airdrop(ctx, mp.buyer.PublicKey(), 1_000_000_000))
	require.NoError(t, net.CreateMint(ctx, mp.mint, 1, 0, nil))
	require.NoError(t, net.CreateMint(ctx, paymentMint, 10*price, 9, nil))
	require.NoError(t, net.CreateTokenAccount(ctx, mp.sellerItemWallet, mp.mint, mp.seller.PublicKey(), 1))
	require.NoError(t, net.CreateTokenAccount(ctx, addrs.ProgramItemWallet, mp.mint, addrs.Item, 0))
	require.NoError(t, net.CreateTokenAccount(ctx, mp.buyerItemWallet, mp.mint, mp.buyer.PublicKey(), 0))
	require.NoError(t, net.CreateTokenAccount(ctx, mp.payment, paymentMint, mp.seller.PublicKey(), 0))
	require.NoError(t, net.CreateTokenAccount(ctx, mp.buyerPaymentWallet, paymentMint, mp.buyer.PublicKey(), 10*price))
	return mp
}

func (mp *marketplace) balance(t *testing.T, addr solana.PublicKey) uint64 {
	t.Helper()
	amount, err := mp.net.TokenBalance(context.Background(), addr)
	require.NoError(t, err)
	return amount
}

func TestService_ListingLifecycle(t *testing.T) {
	ctx := context.Background()
	mp := newMarketplace(t)

	_, err := mp.svc.GetListing(ctx, mp.mint)
	require.True(t, tyerrors.IsAbsent(err))

	_, err = mp.svc.List(ctx, mp.seller, mp.mint, mp.sellerItemWallet, mp.payment, big.NewInt(price))
	require.NoError(t, err)

	listing, err := mp.svc.GetListing(ctx, mp.mint)
	require.NoError(t, err)
	assert.Equal(t, uint64(price), listing.Lamports)
	assert.Equal(t, mp.seller.PublicKey(), listing.Seller)
	assert.Equal(t, mp.payment, listing.Payment)

	_, err = mp.svc.Cancel(ctx, mp.seller, mp.mint, mp.sellerItemWallet)
	require.NoError(t, err)
	_, err = mp.svc.GetListing(ctx, mp.mint)
	require.True(t, tyerrors.IsAbsent(err))
	assert.Equal(t, uint64(1), mp.balance(t, mp.sellerItemWallet))

	_, err = mp.svc.List(ctx, mp.seller, mp.mint, mp.sellerItemWallet, mp.payment, big.NewInt(price))
	require.NoError(t, err)

	sig, err := mp.svc.Buy(ctx, mp.buyer, mp.mint, mp.buyerPaymentWallet, mp.buyerItemWallet)
	require.NoError(t, err)
	assert.NotEqual(t, solana.Signature{}, sig)

	_, err = mp.svc.GetListing(ctx, mp.mint)
	assert.True(t, tyerrors.IsAbsent(err))
	assert.Equal(t, uint64(1), mp.balance(t, mp.buyerItemWallet))
	assert.Equal(t, uint64(price), mp.balance(t, mp.payment))
	assert.Equal(t, uint64(9*price), mp.balance(t, mp.buyerPaymentWallet))

	ops, err := mp.journal.ListOperationsByMint(mp.mint.String(), 0)
	require.NoError(t, err)
	require.Len(t, ops, 4)
	assert.Equal(t, "buy", ops[0].Kind)
	assert.Equal(t, uint64(price), ops[0].Lamports)
	assert.Equal(t, sig.String(), ops[0].Signature)
	assert.Equal(t, mp.buyer.PublicKey().String(), ops[0].Signer)
	for _, op := range ops {
		assert.Equal(t, store.StatusConfirmed, op.Status)
	}

	count, err := testutil.GatherAndCount(mp.registry, "tradeyard_instructions_built_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestService_ListTwiceIsJournaledAsFailed(t *testing.T) {
	ctx := context.Background()
	mp := newMarketplace(t)

	_, err := mp.svc.List(ctx, mp.seller, mp.mint, mp.sellerItemWallet, mp.payment, big.NewInt(price))
	require.NoError(t, err)
	_, err = mp.svc.List(ctx, mp.seller, mp.mint, mp.sellerItemWallet, mp.payment, big.NewInt(price))
	require.Error(t, err)
	assert.True(t, tyerrors.IsCode(err, tyerrors.ErrCodeTransaction))

	ops, err := mp.journal.ListOperationsByMint(mp.mint.String(), 1)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, store.StatusFailed, ops[0].Status)
	assert.NotEmpty(t, ops[0].ErrorMsg)
	assert.NotEmpty(t, ops[0].Signature)
}

func TestService_BuyUnlisted(t *testing.T) {
	builder := newBuilder(t)
	mint := solana.NewWallet().PublicKey()
	addrs, err := builder.Deriver().Derive(mint)
	require.NoError(t, err)

	l := new(mockLedger)
	l.On("GetAccountData", mock.Anything, addrs.ItemMetadata).
		Return(nil, tyerrors.NewAbsentRecordError(addrs.ItemMetadata.String()))

	svc := NewService(builder, l, zerolog.Nop())
	_, err = svc.Buy(context.Background(), solana.NewWallet().PrivateKey, mint,
		solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey())

	require.Error(t, err)
	assert.True(t, tyerrors.IsAbsent(err))
	l.AssertNotCalled(t, "SubmitTransaction", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_BuyUsesListingPayment(t *testing.T) {
	builder := newBuilder(t)
	mint := solana.NewWallet().PublicKey()
	payment := solana.NewWallet().PublicKey()
	addrs, err := builder.Deriver().Derive(mint)
	require.NoError(t, err)

	data, err := layout.MarshalItemMetadata(layout.ItemMetadata{
		Seller:   solana.NewWallet().PublicKey(),
		Mint:     mint,
		Lamports: price,
		Payment:  payment,
		Item:     addrs.ProgramItemWallet,
	})
	require.NoError(t, err)

	buyer := solana.NewWallet().PrivateKey
	sig := solana.Signature{7}

	l := new(mockLedger)
	l.On("GetAccountData", mock.Anything, addrs.ItemMetadata).Return(data, nil)
	l.On("SubmitTransaction", mock.Anything, mock.MatchedBy(func(ins []solana.Instruction) bool {
		if len(ins) != 1 {
			return false
		}
		accounts := ins[0].Accounts()
		return len(accounts) == 8 && accounts[4].PublicKey.Equals(payment)
	}), []solana.PrivateKey{buyer}).Return(sig, nil)

	svc := NewService(builder, l, zerolog.Nop())
	got, err := svc.Buy(context.Background(), buyer, mint, solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.Equal(t, sig, got)
	l.AssertExpectations(t)
}

func TestService_ListRejectsBadPrice(t *testing.T) {
	l := new(mockLedger)
	svc := NewService(newBuilder(t), l, zerolog.Nop())

	for _, p := range []*big.Int{nil, big.NewInt(0), big.NewInt(-5)} {
		_, err := svc.List(context.Background(), solana.NewWallet().PrivateKey,
			solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), p)
		require.Error(t, err)
		assert.True(t, tyerrors.IsCode(err, tyerrors.ErrCodeEncoding))
	}
	l.AssertNotCalled(t, "SubmitTransaction", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_ListSendsTransferThenSell(t *testing.T) {
	builder := newBuilder(t)
	seller := solana.NewWallet().PrivateKey
	mint := solana.NewWallet().PublicKey()

	var submitted []solana.Instruction
	l := new(mockLedger)
	l.On("SubmitTransaction", mock.Anything, mock.Anything, []solana.PrivateKey{seller}).
		Run(func(args mock.Arguments) { submitted = args.Get(1).([]solana.Instruction) }).
		Return(solana.Signature{1}, nil)

	svc := NewService(builder, l, zerolog.Nop())
	_, err := svc.List(context.Background(), seller, mint, solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), big.NewInt(price))
	require.NoError(t, err)

	require.Len(t, submitted, 2)
	assert.Equal(t, solana.TokenProgramID, submitted[0].ProgramID())
	assert.Equal(t, builder.ProgramID(), submitted[1].ProgramID())
}

func TestService_JournalFailureDoesNotBlockSubmission(t *testing.T) {
	seller := solana.NewWallet().PrivateKey

	l := new(mockLedger)
	l.On("SubmitTransaction", mock.Anything, mock.Anything, mock.Anything).Return(solana.Signature{3}, nil)
	j := new(mockJournal)
	j.On("RecordOperation", mock.Anything).Return(errors.New("disk full"))

	svc := NewService(newBuilder(t), l, zerolog.Nop(), WithJournal(j))
	_, err := svc.Cancel(context.Background(), seller, solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey())
	require.NoError(t, err)

	l.AssertExpectations(t)
	j.AssertNotCalled(t, "UpdateOperationStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_SubmissionFailureRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	l := new(mockLedger)
	l.On("SubmitTransaction", mock.Anything, mock.Anything, mock.Anything).
		Return(solana.Signature{}, tyerrors.NewRPCError("send transaction", errors.New("connection refused")))

	svc := NewService(newBuilder(t), l, zerolog.Nop(), WithMetrics(m))
	_, err = svc.Cancel(context.Background(), solana.NewWallet().PrivateKey, solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey())
	require.Error(t, err)
	assert.True(t, tyerrors.IsCode(err, tyerrors.ErrCodeRPC))

	count, err := testutil.GatherAndCount(reg, "tradeyard_transactions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestService_InstructionsWithoutLedger(t *testing.T) {
	builder := newBuilder(t)
	svc := NewService(builder, nil, zerolog.Nop())
	seller := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	sellerItemWallet := solana.NewWallet().PublicKey()

	listIns, err := svc.ListInstructions(seller, mint, sellerItemWallet, solana.NewWallet().PublicKey(), big.NewInt(price))
	require.NoError(t, err)
	require.Len(t, listIns, 2)

	addrs, err := svc.Addresses(mint)
	require.NoError(t, err)
	transferAccounts := listIns[0].Accounts()
	assert.Equal(t, sellerItemWallet, transferAccounts[0].PublicKey)
	assert.Equal(t, addrs.ProgramItemWallet, transferAccounts[1].PublicKey)
	assert.Equal(t, seller, transferAccounts[2].PublicKey)

	cancelIns, err := svc.CancelInstructions(seller, mint, sellerItemWallet)
	require.NoError(t, err)
	require.Len(t, cancelIns, 1)
	data, err := cancelIns[0].Data()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x00, 0x00}, data)
}
