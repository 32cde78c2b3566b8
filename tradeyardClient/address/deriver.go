package address

import (
	"github.com/gagliardetto/solana-go"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/tradeyard/tradeyard-client/tradeyardClient/constant"
)

// DefaultCacheSize bounds the number of mints a Deriver remembers.
const DefaultCacheSize = 4096

// Deriver memoises address derivations for a single program in a bounded
// LRU. Derivation is pure, so a cached Set is always identical to a fresh one.
type Deriver struct {
	programID solana.PublicKey
	search    SearchFunc
	sets      *lru.Cache[solana.PublicKey, Set]
	logger    zerolog.Logger
}

// Option configures a Deriver.
type Option func(*Deriver)

// WithCacheSize sets how many mints are kept. Non-positive sizes are ignored.
func WithCacheSize(size int) Option {
	return func(d *Deriver) {
		if size <= 0 {
			return
		}
		if sets, err := lru.New[solana.PublicKey, Set](size); err == nil {
			d.sets = sets
		}
	}
}

// WithSearch replaces the program address search, solana.FindProgramAddress
// by default.
func WithSearch(search SearchFunc) Option {
	return func(d *Deriver) {
		if search != nil {
			d.search = search
		}
	}
}

// NewDeriver creates a Deriver for programID.
func NewDeriver(programID solana.PublicKey, logger zerolog.Logger, opts ...Option) *Deriver {
	sets, _ := lru.New[solana.PublicKey, Set](DefaultCacheSize)
	d := &Deriver{
		programID: programID,
		search:    solana.FindProgramAddress,
		sets:      sets,
		logger:    logger.With().Str("component", "address_deriver").Logger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ProgramID returns the program the Deriver derives for.
func (d *Deriver) ProgramID() solana.PublicKey {
	return d.programID
}

// Derive returns the full address set for mint.
func (d *Deriver) Derive(mint solana.PublicKey) (Set, error) {
	if cached, ok := d.sets.Get(mint); ok {
		return cached, nil
	}

	item, itemBump, err := find(d.search, d.programID, mint, constant.ItemSeed)
	if err != nil {
		return Set{}, err
	}
	metadata, metadataBump, err := find(d.search, d.programID, mint, constant.ItemMetadataSeed)
	if err != nil {
		return Set{}, err
	}
	wallet, err := associatedWallet(d.search, d.programID, item, mint)
	if err != nil {
		return Set{}, err
	}

	set := Set{
		Mint:              mint,
		Item:              item,
		ItemBump:          itemBump,
		ItemMetadata:      metadata,
		ItemMetadataBump:  metadataBump,
		ProgramItemWallet: wallet,
	}
	if evicted := d.sets.Add(mint, set); evicted {
		d.logger.Debug().Int("size", d.sets.Len()).Msg("evicted least recently used address set")
	}

	d.logger.Debug().
		Str("mint", mint.String()).
		Str("item", item.String()).
		Str("item_metadata", metadata.String()).
		Msg("derived listing addresses")

	return set, nil
}

// Len returns the number of cached mints.
func (d *Deriver) Len() int {
	return d.sets.Len()
}
