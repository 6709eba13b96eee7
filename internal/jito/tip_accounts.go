package jito

import (
	"math/rand"

	"github.com/gagliardetto/solana-go"
)

// TipAccountPool is the fixed set of mainnet relay tip accounts. Tips sent to
// any of them count for bundle priority; picking at random spreads write
// contention across the pool.
var TipAccountPool = []solana.PublicKey{
	solana.MustPublicKeyFromBase58("96gYZGLnJYVFmbjzopPSU6QiEV5fGqZNyN9nmNhvrZU5"),
	solana.MustPublicKeyFromBase58("HFqU5x63VTqvQss8hp11i4wVV8bD44PvwucfZ2bU7gRe"),
	solana.MustPublicKeyFromBase58("Cw8CFyM9FkoMi7K7Crf6HNQqf4uEMzpKw6QNghXLvLkY"),
	solana.MustPublicKeyFromBase58("ADaUMid9yfUytqMBgopwjb2DTLSokTSzL1zt6iGPaS49"),
	solana.MustPublicKeyFromBase58("DfXygSm4jCyNCybVYYK6DwvWqjKee8pbDmJGcLWNDXjh"),
	solana.MustPublicKeyFromBase58("ADuUkR4vqLUMWXxW9gh6D6L8pMSawimctcNZ5pGwDcEt"),
	solana.MustPublicKeyFromBase58("DttWaMuVvTiduZRnguLF7jNxTgiMBZ1hyAumKUiL2KRL"),
	solana.MustPublicKeyFromBase58("3AVi9Tg9Uo68tJfuvoKvqKNWKkC5wPdSSdeBnizKZ6jT"),
}

// RandomPoolTipAccount picks a tip destination from the fixed pool without a
// relay round trip.
func RandomPoolTipAccount() solana.PublicKey {
	return TipAccountPool[rand.Intn(len(TipAccountPool))]
}

// IsPoolTipAccount reports whether key is one of the known tip accounts.
func IsPoolTipAccount(key solana.PublicKey) bool {
	for _, a := range TipAccountPool {
		if a.Equals(key) {
			return true
		}
	}
	return false
}
