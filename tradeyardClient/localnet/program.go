package localnet

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/tradeyard/tradeyard-client/tradeyardClient/address"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/constant"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/instruction"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/layout"
)

// marketProgram executes Sell, Buy and Cancel against local state.
type marketProgram struct {
	programID solana.PublicKey
}

func (p *marketProgram) process(iv *invocation, data []byte) error {
	args, err := instruction.Unpack(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInstructionData, err)
	}

	switch args.Kind {
	case instruction.KindSell:
		return p.sell(iv, args)
	case instruction.KindBuy:
		return p.buy(iv)
	case instruction.KindCancel:
		return p.cancel(iv)
	default:
		return ErrInvalidInstructionData
	}
}

func (p *marketProgram) sell(iv *invocation, args instruction.Args) error {
	keys, err := iv.keys(6)
	if err != nil {
		return err
	}
	seller, programItemWallet, mint, itemMetadata, payment := keys[0], keys[1], keys[2], keys[3], keys[4]

	if !iv.isSigner(seller) {
		return fmt.Errorf("%w: seller", ErrMissingRequiredSignature)
	}

	mintAcct, err := iv.state.get(mint)
	if err != nil {
		return err
	}
	mintState, err := decodeMint(mintAcct)
	if err != nil {
		return fmt.Errorf("mint %s: %w", mint, err)
	}
	if mintState.MintAuthority != nil || mintState.Supply != 1 || !mintState.IsInitialized {
		return fmt.Errorf("%w: mint is not a non-fungible token", ErrInvalidAccountData)
	}

	item, _, err := address.FindItemAddress(p.programID, mint)
	if err != nil {
		return err
	}
	walletAcct, err := iv.state.get(programItemWallet)
	if err != nil {
		return err
	}
	wallet, err := decodeTokenAccount(walletAcct)
	if err != nil {
		return fmt.Errorf("program item wallet: %w", err)
	}
	if !wallet.Owner.Equals(item) || wallet.Amount != 1 || !wallet.Mint.Equals(mint) {
		return fmt.Errorf("%w: item has not been transferred to the program", ErrInvalidAccountData)
	}

	paymentAcct, err := iv.state.get(payment)
	if err != nil {
		return err
	}
	if _, err := decodeTokenAccount(paymentAcct); err != nil {
		return fmt.Errorf("payment: %w", err)
	}

	expected, err := solana.CreateProgramAddress(
		[][]byte{[]byte(constant.ItemMetadataSeed), mint.Bytes(), {args.MetadataBump}}, p.programID)
	if err != nil || !expected.Equals(itemMetadata) {
		return fmt.Errorf("%w: item metadata address", ErrInvalidSeeds)
	}

	existing, err := iv.state.get(itemMetadata)
	if err != nil {
		return err
	}
	if existing != nil && (existing.Lamports > 0 || !layout.IsZeroed(existing.Data)) {
		return fmt.Errorf("%w: %s", ErrAccountAlreadyInUse, itemMetadata)
	}

	data, err := layout.MarshalItemMetadata(layout.ItemMetadata{
		Seller:   seller,
		Mint:     mint,
		Lamports: args.Lamports,
		Payment:  payment,
		Item:     programItemWallet,
	})
	if err != nil {
		return err
	}

	rent := RentExemptMinimum(len(data))
	sellerAcct, err := iv.state.get(seller)
	if err != nil {
		return err
	}
	if sellerAcct == nil || sellerAcct.Lamports < rent {
		return fmt.Errorf("%w: seller cannot fund item metadata", ErrInsufficientFunds)
	}
	sellerAcct.Lamports -= rent

	if err := iv.write(seller, sellerAcct); err != nil {
		return err
	}
	return iv.write(itemMetadata, &Account{Owner: p.programID, Lamports: rent, Data: data})
}

// loadListing reads the metadata record at key, which must be owned by the program.
func (p *marketProgram) loadListing(iv *invocation, key solana.PublicKey) (*Account, *layout.ItemMetadata, error) {
	acct, err := iv.state.get(key)
	if err != nil {
		return nil, nil, err
	}
	if acct == nil || !acct.Owner.Equals(p.programID) {
		return nil, nil, fmt.Errorf("%w: item metadata", ErrIllegalOwner)
	}
	if layout.IsZeroed(acct.Data) {
		return nil, nil, fmt.Errorf("%w: item is not listed", ErrInvalidAccountData)
	}
	metadata, err := layout.UnmarshalItemMetadata(acct.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidAccountData, err)
	}
	return acct, metadata, nil
}

// releaseItem moves the escrowed token out, signed by the item PDA.
func (p *marketProgram) releaseItem(iv *invocation, metadata *layout.ItemMetadata, programItem, destination solana.PublicKey) error {
	item, _, err := address.FindItemAddress(p.programID, metadata.Mint)
	if err != nil {
		return err
	}
	if !item.Equals(programItem) {
		return fmt.Errorf("%w: item account", ErrInvalidSeeds)
	}
	return transferTokens(iv, metadata.Item, destination, item, 1, true)
}

// closeListing zeroes the record and returns its lamports to recipient when
// recipient is writable.
func (p *marketProgram) closeListing(iv *invocation, key solana.PublicKey, acct *Account, recipient solana.PublicKey) error {
	if iv.isWritable(recipient) {
		recipientAcct, err := iv.state.get(recipient)
		if err != nil {
			return err
		}
		if recipientAcct == nil {
			recipientAcct = &Account{Owner: solana.SystemProgramID}
		}
		recipientAcct.Lamports += acct.Lamports
		if err := iv.write(recipient, recipientAcct); err != nil {
			return err
		}
	}
	return iv.remove(key)
}

func (p *marketProgram) buy(iv *invocation) error {
	keys, err := iv.keys(8)
	if err != nil {
		return err
	}
	buyer, buyerPaymentWallet, buyerItemWallet, programItemWallet := keys[0], keys[1], keys[2], keys[3]
	payment, itemMetadata, programItem := keys[4], keys[5], keys[7]

	acct, metadata, err := p.loadListing(iv, itemMetadata)
	if err != nil {
		return err
	}
	if !metadata.Payment.Equals(payment) || !metadata.Item.Equals(programItemWallet) {
		return fmt.Errorf("%w: accounts do not match listing", ErrInvalidAccountData)
	}

	if err := transferTokens(iv, buyerPaymentWallet, metadata.Payment, buyer, metadata.Lamports, iv.isSigner(buyer)); err != nil {
		return fmt.Errorf("payment: %w", err)
	}
	if err := p.releaseItem(iv, metadata, programItem, buyerItemWallet); err != nil {
		return fmt.Errorf("item: %w", err)
	}
	return p.closeListing(iv, itemMetadata, acct, buyer)
}

func (p *marketProgram) cancel(iv *invocation) error {
	keys, err := iv.keys(6)
	if err != nil {
		return err
	}
	seller, itemMetadata, programItemWallet, sellerItemWallet, programItem := keys[0], keys[1], keys[3], keys[4], keys[5]

	if !iv.isSigner(seller) {
		return fmt.Errorf("%w: seller", ErrMissingRequiredSignature)
	}

	acct, metadata, err := p.loadListing(iv, itemMetadata)
	if err != nil {
		return err
	}
	if !metadata.Seller.Equals(seller) {
		return fmt.Errorf("%w: signer is not the seller", ErrInvalidAccountData)
	}
	if !metadata.Item.Equals(programItemWallet) {
		return fmt.Errorf("%w: program item wallet does not match listing", ErrInvalidAccountData)
	}

	if err := p.releaseItem(iv, metadata, programItem, sellerItemWallet); err != nil {
		return err
	}
	return p.closeListing(iv, itemMetadata, acct, seller)
}
