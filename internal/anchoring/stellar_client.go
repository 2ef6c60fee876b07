package anchoring

import (
	"context"
	"fmt"

	"github.com/stellar/go/clients/horizonclient"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	"github.com/stellar/go/txnbuild"
	"go.uber.org/zap"

	"bluetrust/registry-backend/internal/ledger"
)

// StellarConfig contains Stellar network configuration.
type StellarConfig struct {
	HorizonURL      string `json:"horizon_url"`
	IssuerSecretKey string `json:"issuer_secret_key"`
	Network         string `json:"network"` // "testnet" or "public"
}

// StellarAnchor mirrors ledger entries onto the Stellar network as
// manage-data transactions. The local ledger is authoritative: anchoring is
// best-effort, and a failed anchor never rolls back a committed entry.
type StellarAnchor struct {
	horizonClient     horizonclient.ClientInterface
	issuerKeyPair     *keypair.Full
	networkPassphrase string
	logger            *zap.Logger
}

// NewStellarAnchor creates a Stellar anchoring client.
func NewStellarAnchor(config StellarConfig, logger *zap.Logger) (*StellarAnchor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := horizonclient.DefaultTestNetClient
	if config.Network == "public" {
		client = horizonclient.DefaultPublicNetClient
	} else if config.HorizonURL != "" {
		client = &horizonclient.Client{HorizonURL: config.HorizonURL}
	}

	issuerKeyPair, err := keypair.ParseFull(config.IssuerSecretKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse issuer key pair: %w", err)
	}

	networkPassphrase := network.TestNetworkPassphrase
	if config.Network == "public" {
		networkPassphrase = network.PublicNetworkPassphrase
	}

	return &StellarAnchor{
		horizonClient:     client,
		issuerKeyPair:     issuerKeyPair,
		networkPassphrase: networkPassphrase,
		logger:            logger,
	}, nil
}

// AnchorEntry submits one ledger entry as a manage-data transaction keyed by
// the entry id.
func (a *StellarAnchor) AnchorEntry(ctx context.Context, e ledger.Entry) error {
	sourceAccount, err := a.horizonClient.AccountDetail(horizonclient.AccountRequest{
		AccountID: a.issuerKeyPair.Address(),
	})
	if err != nil {
		return fmt.Errorf("failed to load anchor account: %w", err)
	}

	tx, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        &sourceAccount,
		IncrementSequenceNum: true,
		BaseFee:              txnbuild.MinBaseFee,
		Preconditions: txnbuild.Preconditions{
			TimeBounds: txnbuild.NewTimeout(60),
		},
		Operations: []txnbuild.Operation{
			&txnbuild.ManageData{
				Name:  "bluetrust:" + e.ID.String(),
				Value: []byte(entryMemo(e)),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to build anchor transaction: %w", err)
	}

	tx, err = tx.Sign(a.networkPassphrase, a.issuerKeyPair)
	if err != nil {
		return fmt.Errorf("failed to sign anchor transaction: %w", err)
	}

	resp, err := a.horizonClient.SubmitTransaction(tx)
	if err != nil {
		return fmt.Errorf("failed to submit anchor transaction: %w", err)
	}

	a.logger.Info("ledger entry anchored",
		zap.String("entry_id", e.ID.String()),
		zap.String("kind", string(e.Kind)),
		zap.String("transaction_hash", resp.Hash),
		zap.Int32("ledger_sequence", resp.Ledger),
	)
	return nil
}

// entryMemo packs the entry into the 64-byte manage-data value limit.
func entryMemo(e ledger.Entry) string {
	memo := fmt.Sprintf("%s:%d", e.Kind, e.Amount)
	if len(memo) > 64 {
		memo = memo[:64]
	}
	return memo
}
