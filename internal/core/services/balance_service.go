package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
	"github.com/SscSPs/ledger_engine/internal/dto"
	"github.com/SscSPs/ledger_engine/internal/utils/accounting"
	"github.com/SscSPs/ledger_engine/internal/utils/pagination"
)

const defaultStatementLimit = 50

type balanceService struct {
	BaseService
	store portsrepo.Store
}

// NewBalanceService creates the balance query service. Balances are computed from legs on
// every call; running totals are never consulted.
func NewBalanceService(store portsrepo.Store) portssvc.BalanceSvcFacade {
	return &balanceService{store: store}
}

var _ portssvc.BalanceSvcFacade = (*balanceService)(nil)

func (s *balanceService) Balance(ctx context.Context, accountID string, opts domain.BalanceOptions) (domain.Balance, error) {
	acc, err := s.store.FindAccountByID(ctx, accountID)
	if err != nil {
		return domain.Balance{}, err
	}
	return subtreeBalance(ctx, s.store, *acc, opts)
}

func (s *balanceService) SimpleBalance(ctx context.Context, accountID string, opts domain.BalanceOptions) (domain.Balance, error) {
	acc, err := s.store.FindAccountByID(ctx, accountID)
	if err != nil {
		return domain.Balance{}, err
	}
	return simpleBalance(ctx, s.store, *acc, opts)
}

func (s *balanceService) AccountBalanceAfter(ctx context.Context, legID string) (domain.Balance, error) {
	return s.balanceAtLeg(ctx, legID, true)
}

func (s *balanceService) AccountBalanceBefore(ctx context.Context, legID string) (domain.Balance, error) {
	return s.balanceAtLeg(ctx, legID, false)
}

func (s *balanceService) balanceAtLeg(ctx context.Context, legID string, inclusive bool) (domain.Balance, error) {
	leg, err := s.store.FindLegByID(ctx, legID)
	if err != nil {
		return domain.Balance{}, err
	}
	acc, err := s.store.FindAccountByID(ctx, leg.AccountID)
	if err != nil {
		return domain.Balance{}, err
	}
	// legs of the same transaction share one position: after includes all, before none
	pos := leg.Position().Transaction()
	sums, err := s.store.SumLegs(ctx, portsrepo.LegFilter{
		AccountIDs:               []string{acc.AccountID},
		UpToTransaction:          &pos,
		UpToTransactionInclusive: inclusive,
	})
	if err != nil {
		return domain.Balance{}, fmt.Errorf("failed to sum legs up to leg %s: %w", legID, err)
	}
	raw := domain.ZeroBalance(acc.Currencies...).Add(domain.NewBalanceFromMap(sums))
	return accounting.SignedBalance(raw, acc.AccountType), nil
}

func (s *balanceService) Statement(ctx context.Context, accountID string, req dto.StatementRequest) (*dto.StatementResponse, error) {
	acc, err := s.store.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultStatementLimit
	}

	// the opening balance covers every leg before the first line of this page
	var opening *portsrepo.LegFilter
	var after *domain.LegPosition
	switch {
	case req.NextToken != "":
		pos, err := pagination.DecodePositionToken(req.NextToken)
		if err != nil {
			s.LogWarn(ctx, err, "Invalid statement token", slog.String("account_id", accountID))
			return nil, err
		}
		after = &pos
		opening = &portsrepo.LegFilter{AccountIDs: []string{accountID}, UpTo: &pos, UpToInclusive: true}
	case req.From != nil:
		before := req.From.Add(-time.Nanosecond)
		opening = &portsrepo.LegFilter{AccountIDs: []string{accountID}, AsOf: &before}
	}

	running := domain.ZeroBalance(acc.Currencies...)
	if opening != nil {
		sums, err := s.store.SumLegs(ctx, *opening)
		if err != nil {
			return nil, fmt.Errorf("failed to compute opening balance: %w", err)
		}
		running = running.Add(domain.NewBalanceFromMap(sums))
	}

	legs, err := s.store.ListLegs(ctx, portsrepo.LegFilter{
		AccountIDs: []string{accountID},
		FromDate:   req.From,
		AsOf:       req.To,
		After:      after,
		Limit:      limit + 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list legs for statement: %w", err)
	}

	resp := &dto.StatementResponse{
		AccountID:      accountID,
		OpeningBalance: accounting.SignedBalance(running, acc.AccountType),
		Lines:          make([]dto.StatementLine, 0, limit),
	}
	hasMore := len(legs) > limit
	if hasMore {
		legs = legs[:limit]
	}
	for _, leg := range legs {
		running = running.AddMoney(leg.Amount)
		resp.Lines = append(resp.Lines, dto.StatementLine{
			LegID:         leg.LegID,
			TransactionID: leg.TransactionID,
			Date:          leg.Date,
			Sequence:      leg.Sequence,
			Description:   leg.Description,
			Amount:        leg.Amount,
			Side:          leg.Side(),
			BalanceAfter:  accounting.SignedBalance(running, acc.AccountType),
		})
	}
	if hasMore {
		token := pagination.EncodePositionToken(legs[len(legs)-1].Position())
		resp.NextToken = &token
	}
	return resp, nil
}

// legFilter converts balance options into a leg filter over the given accounts.
func legFilter(accountIDs []string, opts domain.BalanceOptions) portsrepo.LegFilter {
	return portsrepo.LegFilter{
		AccountIDs: accountIDs,
		Currency:   opts.Currency,
		FromDate:   opts.FromDate,
		AsOf:       opts.AsOf,
	}
}

// zeroFor returns a zero balance over currencies, restricted to opts.Currency when set.
func zeroFor(currencies []string, opts domain.BalanceOptions) domain.Balance {
	if opts.Currency == "" {
		return domain.ZeroBalance(currencies...)
	}
	for _, c := range currencies {
		if c == opts.Currency {
			return domain.ZeroBalance(c)
		}
	}
	return domain.Balance{}
}

func present(raw domain.Balance, accountType domain.AccountType, opts domain.BalanceOptions) domain.Balance {
	if opts.Raw {
		return raw
	}
	return accounting.SignedBalance(raw, accountType)
}

func simpleBalance(ctx context.Context, r portsrepo.Reader, acc domain.Account, opts domain.BalanceOptions) (domain.Balance, error) {
	sums, err := r.SumLegs(ctx, legFilter([]string{acc.AccountID}, opts))
	if err != nil {
		return domain.Balance{}, fmt.Errorf("failed to sum legs of account %s: %w", acc.AccountID, err)
	}
	raw := zeroFor(acc.Currencies, opts).Add(domain.NewBalanceFromMap(sums))
	return present(raw, acc.AccountType, opts), nil
}

func subtreeBalance(ctx context.Context, r portsrepo.Reader, acc domain.Account, opts domain.BalanceOptions) (domain.Balance, error) {
	accounts, err := descendants(ctx, r, acc)
	if err != nil {
		return domain.Balance{}, err
	}
	ids := make([]string, len(accounts))
	var currencies []string
	for i, a := range accounts {
		ids[i] = a.AccountID
		currencies = append(currencies, a.Currencies...)
	}
	sums, err := r.SumLegs(ctx, legFilter(ids, opts))
	if err != nil {
		return domain.Balance{}, fmt.Errorf("failed to sum legs under account %s: %w", acc.AccountID, err)
	}
	raw := zeroFor(currencies, opts).Add(domain.NewBalanceFromMap(sums))
	return present(raw, acc.AccountType, opts), nil
}

// descendants returns acc followed by every account below it, breadth first.
func descendants(ctx context.Context, r portsrepo.AccountReader, acc domain.Account) ([]domain.Account, error) {
	out := []domain.Account{acc}
	for i := 0; i < len(out); i++ {
		children, err := r.ListChildAccounts(ctx, out[i].AccountID)
		if err != nil {
			return nil, fmt.Errorf("failed to list children of %s: %w", out[i].AccountID, err)
		}
		out = append(out, children...)
	}
	return out, nil
}
