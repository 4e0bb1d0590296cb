package components

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/ledger-posting-engine/internal/domain/account"
	"github.com/ledger-posting-engine/internal/domain/shared"
	"github.com/ledger-posting-engine/internal/posting/rules"
	"github.com/ledger-posting-engine/internal/posting/service"
)

type AccountResolverImpl struct {
	accountRepo            account.Repository
	controls               *account.ControlAccounts
	customerClassification account.Classification
	logger                 *slog.Logger
}

func NewAccountResolver(
	accountRepo account.Repository,
	controls *account.ControlAccounts,
	customerClassification account.Classification,
	logger *slog.Logger,
) service.AccountResolver {
	if customerClassification == "" {
		customerClassification = account.ClassificationLiability
	}
	return &AccountResolverImpl{
		accountRepo:            accountRepo,
		controls:               controls,
		customerClassification: customerClassification,
		logger:                 logger,
	}
}

// ResolvePair finds or creates both ledger accounts of a request within tx.
// Accounts that already exist keep their stored classification.
func (r *AccountResolverImpl) ResolvePair(ctx context.Context, tx pgx.Tx, request *shared.PostingRequest) (*account.LedgerAccount, *account.LedgerAccount, error) {
	logger := r.logger
	if request.CorrelationID != "" {
		logger = r.logger.With("correlation_id", request.CorrelationID)
	}
	repo := r.accountRepo.WithTx(tx)

	sourceID := rules.FundingSource(r.controls, request)
	sourceHint := request.SourceClassification
	if sourceID != request.SourceAccountID {
		sourceHint = ""
	}

	source, err := r.resolve(ctx, repo, logger, request, sourceID, sourceHint)
	if err != nil {
		return nil, nil, err
	}
	destination, err := r.resolve(ctx, repo, logger, request, request.DestinationAccountID, request.DestinationClassification)
	if err != nil {
		return nil, nil, err
	}
	return source, destination, nil
}

func (r *AccountResolverImpl) resolve(
	ctx context.Context,
	repo account.Repository,
	logger *slog.Logger,
	request *shared.PostingRequest,
	externalID, hint string,
) (*account.LedgerAccount, error) {
	key := account.Key{
		TenantID:          request.TenantID,
		Environment:       request.Environment,
		ExternalAccountID: externalID,
		Currency:          request.Currency,
	}

	acc, created, err := repo.FindOrCreate(ctx, key, r.classificationFor(externalID, hint))
	if err != nil {
		return nil, err
	}
	if created {
		logger.Info("Ledger account created",
			"account_id", acc.ID.String(),
			"external_account_id", externalID,
			"classification", string(acc.Classification),
		)
	}
	return acc, nil
}

// classificationFor picks the classification used if the account has to be
// created: an explicit hint, then the control registry, then the customer default.
// An unparseable hint is passed through so creation fails with ErrInvalidAccountType.
func (r *AccountResolverImpl) classificationFor(externalID, hint string) account.Classification {
	if hint != "" {
		class, err := account.ParseClassification(hint)
		if err != nil {
			return account.Classification(hint)
		}
		return class
	}
	if class, ok := r.controls.Classification(externalID); ok {
		return class
	}
	return r.customerClassification
}
