package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
	"github.com/SscSPs/ledger_engine/internal/dto"
	"github.com/google/uuid"
)

const defaultListLimit = 100

// accountTreeService implements the AccountTreeSvcFacade interface
type accountTreeService struct {
	BaseService
	store           portsrepo.Store
	defaultCurrency string
}

// AccountTreeOption is a functional option for configuring the account tree service
type AccountTreeOption func(*accountTreeService)

// WithDefaultCurrency sets the currency given to root accounts created without one.
func WithDefaultCurrency(code string) AccountTreeOption {
	return func(s *accountTreeService) {
		s.defaultCurrency = domain.NormalizeCurrency(code)
	}
}

// NewAccountTreeService creates the chart of accounts service.
func NewAccountTreeService(store portsrepo.Store, options ...AccountTreeOption) portssvc.AccountTreeSvcFacade {
	svc := &accountTreeService{store: store}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.AccountTreeSvcFacade = (*accountTreeService)(nil)

func (s *accountTreeService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.store.FindAccountByID(ctx, accountID)
}

func (s *accountTreeService) ListAccounts(ctx context.Context, params dto.ListAccountsParams) ([]domain.Account, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	accounts, err := s.store.ListAccounts(ctx, limit, params.Offset)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts")
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

func (s *accountTreeService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest) (*domain.Account, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: account name is required", apperrors.ErrValidation)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate account id: %w", err)
	}
	now := s.Now()
	actor := s.Actor(ctx)
	acc := domain.Account{
		AccountID:       id.String(),
		ParentAccountID: req.ParentAccountID,
		Name:            name,
		Code:            strings.TrimSpace(req.Code),
		IsBankAccount:   req.IsBankAccount,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor,
			LastUpdatedAt: now,
			LastUpdatedBy: actor,
		},
	}

	var created *domain.Account
	err = s.store.WithTx(ctx, func(ctx context.Context, repo portsrepo.Repository) error {
		currencies := req.Currencies
		if acc.ParentAccountID != "" {
			parent, err := repo.FindAccountByID(ctx, acc.ParentAccountID)
			if err != nil {
				return err
			}
			if req.AccountType != "" {
				return fmt.Errorf("%w: only root accounts choose a type, %q is a child account", apperrors.ErrInvalidAccountType, name)
			}
			acc.AccountType = parent.AccountType
			if len(currencies) == 0 {
				currencies = parent.Currencies
			}
		} else {
			t, err := domain.ParseAccountType(string(req.AccountType))
			if err != nil {
				return err
			}
			acc.AccountType = t
			if len(currencies) == 0 && s.defaultCurrency != "" {
				currencies = []string{s.defaultCurrency}
			}
		}
		validated, err := validateCurrencies(ctx, repo, currencies)
		if err != nil {
			return err
		}
		if len(validated) == 0 {
			return fmt.Errorf("%w: account %q needs at least one currency", apperrors.ErrUnsupportedCurrency, name)
		}
		acc.Currencies = validated
		if err := acc.ValidateBankAccount(); err != nil {
			return err
		}
		if err := repo.SaveAccount(ctx, acc); err != nil {
			return err
		}
		if err := s.recomputeSubtree(ctx, repo, acc.AccountID); err != nil {
			return err
		}
		created, err = repo.FindAccountByID(ctx, acc.AccountID)
		return err
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to create account",
			slog.String("name", name),
			slog.String("parent_account_id", req.ParentAccountID))
		return nil, err
	}
	s.LogInfo(ctx, "Account created",
		slog.String("account_id", created.AccountID),
		slog.String("full_code", created.FullCode),
		slog.String("account_type", string(created.AccountType)))
	return created, nil
}

func (s *accountTreeService) UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest) (*domain.Account, error) {
	var updated *domain.Account
	err := s.store.WithTx(ctx, func(ctx context.Context, repo portsrepo.Repository) error {
		current, err := repo.FindAccountByID(ctx, accountID)
		if err != nil {
			return err
		}
		acc := *current

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return fmt.Errorf("%w: account name is required", apperrors.ErrValidation)
			}
			acc.Name = name
		}
		if req.Code != nil {
			acc.Code = strings.TrimSpace(*req.Code)
		}
		if req.IsBankAccount != nil {
			acc.IsBankAccount = *req.IsBankAccount
		}
		if req.ParentAccountID != nil && *req.ParentAccountID != acc.ParentAccountID {
			if err := checkNoCycle(ctx, repo, accountID, *req.ParentAccountID); err != nil {
				return err
			}
			acc.ParentAccountID = *req.ParentAccountID
		}
		if req.AccountType != nil {
			if !acc.IsRoot() {
				return fmt.Errorf("%w: only root accounts choose a type", apperrors.ErrInvalidAccountType)
			}
			t, err := domain.ParseAccountType(string(*req.AccountType))
			if err != nil {
				return err
			}
			acc.AccountType = t
		}
		if req.Currencies != nil {
			currencies, err := validateCurrencies(ctx, repo, req.Currencies)
			if err != nil {
				return err
			}
			if len(currencies) == 0 {
				return fmt.Errorf("%w: account %q needs at least one currency", apperrors.ErrUnsupportedCurrency, acc.Name)
			}
			if err := checkRemovedCurrencies(ctx, repo, acc, currencies); err != nil {
				return err
			}
			acc.Currencies = currencies
		}

		acc.LastUpdatedAt = s.Now()
		acc.LastUpdatedBy = s.Actor(ctx)
		if err := repo.UpdateAccount(ctx, acc); err != nil {
			return err
		}
		if err := s.recomputeSubtree(ctx, repo, accountID); err != nil {
			return err
		}
		updated, err = repo.FindAccountByID(ctx, accountID)
		return err
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to update account", slog.String("account_id", accountID))
		return nil, err
	}
	s.LogInfo(ctx, "Account updated", slog.String("account_id", accountID))
	return updated, nil
}

// checkNoCycle rejects a new parent that is the account itself or one of its descendants.
func checkNoCycle(ctx context.Context, repo portsrepo.AccountReader, accountID, newParentID string) error {
	for id := newParentID; id != ""; {
		if id == accountID {
			return fmt.Errorf("%w: account %s cannot be moved below itself", apperrors.ErrValidation, accountID)
		}
		parent, err := repo.FindAccountByID(ctx, id)
		if err != nil {
			return err
		}
		id = parent.ParentAccountID
	}
	return nil
}

// checkRemovedCurrencies refuses to drop a currency the account already has legs in.
func checkRemovedCurrencies(ctx context.Context, repo portsrepo.LegReader, acc domain.Account, keep []string) error {
	kept := make(map[string]struct{}, len(keep))
	for _, c := range keep {
		kept[c] = struct{}{}
	}
	for _, c := range acc.Currencies {
		if _, ok := kept[c]; ok {
			continue
		}
		n, err := repo.CountLegs(ctx, portsrepo.LegFilter{AccountIDs: []string{acc.AccountID}, Currency: c})
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: account %s has %d legs in %s", apperrors.ErrAccountInUse, acc.AccountID, n, c)
		}
	}
	return nil
}

type subtreeFrame struct {
	accountID string
	prefix    string
	prefixOK  bool
	rootType  domain.AccountType
}

// recomputeSubtree refreshes the derived type and full code of an account and everything
// below it. It must run in the same unit of work as the change that triggered it.
func (s *accountTreeService) recomputeSubtree(ctx context.Context, repo portsrepo.Repository, accountID string) error {
	start, err := repo.FindAccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	frame := subtreeFrame{accountID: accountID, prefixOK: true, rootType: start.AccountType}
	if !start.IsRoot() {
		parent, err := repo.FindAccountByID(ctx, start.ParentAccountID)
		if err != nil {
			return err
		}
		frame.rootType = parent.AccountType
		frame.prefix = parent.FullCode
		frame.prefixOK = parent.FullCode != ""
	}

	inSubtree := make(map[string]struct{})
	queue := []subtreeFrame{frame}
	var changed []domain.Account
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		acc, err := repo.FindAccountByID(ctx, f.accountID)
		if err != nil {
			return err
		}
		inSubtree[acc.AccountID] = struct{}{}

		fullCode := ""
		ok := f.prefixOK && acc.Code != ""
		if ok {
			fullCode = f.prefix + acc.Code
		}
		if acc.AccountType != f.rootType || acc.FullCode != fullCode {
			acc.AccountType = f.rootType
			acc.FullCode = fullCode
			changed = append(changed, *acc)
		}
		if err := acc.ValidateBankAccount(); err != nil {
			return err
		}

		children, err := repo.ListChildAccounts(ctx, acc.AccountID)
		if err != nil {
			return err
		}
		for _, child := range children {
			queue = append(queue, subtreeFrame{accountID: child.AccountID, prefix: fullCode, prefixOK: ok, rootType: f.rootType})
		}
	}

	for _, acc := range changed {
		if acc.FullCode != "" {
			owner, err := repo.FindAccountByFullCode(ctx, acc.FullCode)
			switch {
			case err == nil:
				if _, mine := inSubtree[owner.AccountID]; !mine {
					return fmt.Errorf("%w: full code %q is already used by account %s", apperrors.ErrDuplicate, acc.FullCode, owner.AccountID)
				}
			case !errors.Is(err, apperrors.ErrNotFound):
				return err
			}
		}
		if err := repo.UpdateAccount(ctx, acc); err != nil {
			return err
		}
	}
	return nil
}

func (s *accountTreeService) DeleteAccount(ctx context.Context, accountID string) error {
	err := s.store.WithTx(ctx, func(ctx context.Context, repo portsrepo.Repository) error {
		if _, err := repo.FindAccountByID(ctx, accountID); err != nil {
			return err
		}
		children, err := repo.ListChildAccounts(ctx, accountID)
		if err != nil {
			return err
		}
		if len(children) > 0 {
			return fmt.Errorf("%w: account %s has %d children", apperrors.ErrAccountInUse, accountID, len(children))
		}
		n, err := repo.CountLegs(ctx, portsrepo.LegFilter{AccountIDs: []string{accountID}})
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: account %s has %d legs", apperrors.ErrAccountInUse, accountID, n)
		}
		return repo.DeleteAccount(ctx, accountID)
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to delete account", slog.String("account_id", accountID))
		return err
	}
	s.LogInfo(ctx, "Account deleted", slog.String("account_id", accountID))
	return nil
}

func (s *accountTreeService) AccountTree(ctx context.Context, accountID string, opts domain.BalanceOptions) (*domain.AccountNode, error) {
	acc, err := s.store.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return s.buildNode(ctx, *acc, opts)
}

// buildNode computes each simple balance once and rolls children up into their parents.
func (s *accountTreeService) buildNode(ctx context.Context, acc domain.Account, opts domain.BalanceOptions) (*domain.AccountNode, error) {
	raw := opts
	raw.Raw = true
	own, err := simpleBalance(ctx, s.store, acc, raw)
	if err != nil {
		return nil, err
	}
	node := &domain.AccountNode{Account: acc, Children: []*domain.AccountNode{}}
	total := own
	children, err := s.store.ListChildAccounts(ctx, acc.AccountID)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		childNode, err := s.buildNode(ctx, child, opts)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, childNode)
		childRaw := childNode.Balance
		if !opts.Raw {
			// children share the root type, so undo the same sign
			childRaw = present(childRaw, acc.AccountType, opts)
		}
		total = total.Add(childRaw)
	}
	node.SimpleBalance = present(own, acc.AccountType, opts)
	node.Balance = present(total, acc.AccountType, opts)
	return node, nil
}

// ValidateAccountingEquation checks that the raw balances of all roots sum to zero.
func (s *accountTreeService) ValidateAccountingEquation(ctx context.Context) error {
	residue, err := equationResidue(ctx, s.store)
	if err != nil {
		return err
	}
	if !residue.IsZero() {
		err := &apperrors.AccountingEquationViolationError{Total: residue.String()}
		s.LogError(ctx, err, "Accounting equation violated")
		return err
	}
	return nil
}

// equationResidue is the raw sum over every root account. Every leg belongs to exactly one
// root subtree, so this is the sum of all legs, read in a single statement so a concurrent
// transaction is seen whole or not at all.
func equationResidue(ctx context.Context, r portsrepo.Reader) (domain.Balance, error) {
	sums, err := r.SumLegs(ctx, portsrepo.LegFilter{})
	if err != nil {
		return domain.Balance{}, fmt.Errorf("failed to sum ledger legs: %w", err)
	}
	return domain.NewBalanceFromMap(sums), nil
}
