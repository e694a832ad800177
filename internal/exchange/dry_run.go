package exchange

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
)

// DryRunSigner accepts every transaction without submitting it. It backs
// paper trading where quotes are real but nothing lands on chain.
type DryRunSigner struct {
	publicKey string

	mu   sync.Mutex
	sent int
}

// NewDryRunSigner creates a signer reporting publicKey
func NewDryRunSigner(publicKey string) *DryRunSigner {
	return &DryRunSigner{publicKey: publicKey}
}

func (s *DryRunSigner) PublicKey() string {
	return s.publicKey
}

// SignAndSend returns a deterministic fake signature for tx
func (s *DryRunSigner) SignAndSend(ctx context.Context, tx []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(tx) == 0 {
		return "", fmt.Errorf("empty transaction")
	}

	s.mu.Lock()
	s.sent++
	n := s.sent
	s.mu.Unlock()

	h := sha256.New()
	h.Write(tx)
	fmt.Fprintf(h, "#%d", n)
	return "dryrun-" + hex.EncodeToString(h.Sum(nil)[:16]), nil
}

// Sent returns how many transactions were accepted
func (s *DryRunSigner) Sent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent
}
