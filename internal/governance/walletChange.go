package governance

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/veltacap/custodian/internal/models"
	"github.com/veltacap/custodian/internal/validator"
)

type CreateWalletChangeInput struct {
	AccountID  string
	ChangeType string
	WalletID   string
	Label      string
	Network    string
	Address    string
}

// CreateWalletChangeRequest files a crypto-wallet add/update/delete for
// governor review. An add embeds the wallet on the account immediately with
// a pending verification status, so the owner can see it while it awaits
// sign-off; updates and deletes leave the wallet untouched until approval.
func (e *Engine) CreateWalletChangeRequest(ctx context.Context, input CreateWalletChangeInput, actor models.Actor) (string, error) {
	var v validator.Validator
	switch input.ChangeType {
	case models.WalletChangeAdd:
		v.Check(validator.NotBlank(input.Label), "Wallet label is required")
		v.Check(validator.NotBlank(input.Network), "Network is required")
		v.Check(validator.NotBlank(input.Address), "Wallet address is required")
	case models.WalletChangeUpdate:
		v.Check(validator.NotBlank(input.WalletID), "Wallet id is required")
		v.Check(validator.NotBlank(input.Address), "Wallet address is required")
	case models.WalletChangeDelete:
		v.Check(validator.NotBlank(input.WalletID), "Wallet id is required")
	default:
		v.AddError(fmt.Sprintf("Unknown change type %q", input.ChangeType))
	}
	if v.HasErrors() {
		return "", &ValidationError{Errors: v.Errors}
	}

	account, found, err := e.db.Account().GetOne(input.AccountID)
	if err != nil {
		return "", err
	}
	if !found {
		return "", &NotFoundError{Resource: "account", ID: input.AccountID}
	}

	req := &models.WalletChangeRequest{
		AccountID:   input.AccountID,
		ChangeType:  input.ChangeType,
		Label:       input.Label,
		Network:     input.Network,
		Address:     input.Address,
		RequestedBy: actor.ID,
	}

	if input.ChangeType != models.WalletChangeAdd {
		wallet, found, err := e.db.CryptoWallet().GetOne(input.WalletID)
		if err != nil {
			return "", err
		}
		if !found || wallet.AccountID != input.AccountID {
			return "", &NotFoundError{Resource: "wallet", ID: input.WalletID}
		}

		req.WalletID = sql.NullString{String: wallet.ID, Valid: true}
		if input.ChangeType == models.WalletChangeDelete {
			req.PriorVerificationStatus = sql.NullString{String: wallet.VerificationStatus, Valid: true}
		}
	}

	var reqID string
	err = e.runInTx(ctx, func(tx *sql.Tx) error {
		if input.ChangeType == models.WalletChangeAdd {
			walletID, err := e.db.CryptoWallet().Insert(&models.CryptoWallet{
				AccountID:          input.AccountID,
				Label:              input.Label,
				Network:            input.Network,
				Address:            input.Address,
				VerificationStatus: models.WalletVerificationPending,
			}, tx)
			if err != nil {
				return err
			}
			req.WalletID = sql.NullString{String: walletID, Valid: true}
		}

		reqID, err = e.db.WalletChange().Insert(req, tx)
		if err != nil {
			return err
		}

		details := fmt.Sprintf("change=%s wallet=%s", req.ChangeType, req.WalletID.String)
		return e.audit(tx, actor, models.AuditActionRequestCreated, reqID, accountName(account), details)
	})
	if err != nil {
		return "", err
	}

	return reqID, nil
}

type walletChangeHandler struct {
	engine *Engine
}

func (h *walletChangeHandler) Fetch(id string) (*models.ApprovalRequest, bool, error) {
	req, found, err := h.engine.db.WalletChange().GetOne(id)
	if err != nil || !found {
		return nil, false, err
	}

	return &models.ApprovalRequest{
		ID:          req.ID,
		Kind:        models.KindCryptoWallet,
		AccountID:   req.AccountID,
		Status:      req.Status,
		RequestedBy: req.RequestedBy,
		RequestedAt: req.RequestedAt,
		Payload:     req,
	}, true, nil
}

func (h *walletChangeHandler) Reviewable(req *models.ApprovalRequest) error {
	return nil
}

// On approval, the embedded wallet becomes verified (add), takes on the
// requested details (update), or is removed from the account (delete).
func (h *walletChangeHandler) OnApprove(tx *sql.Tx, req *models.ApprovalRequest, opts ApproveOptions, actor models.Actor) (string, error) {
	change := req.Payload.(*models.WalletChangeRequest)
	wallets := h.engine.db.CryptoWallet()

	switch change.ChangeType {
	case models.WalletChangeAdd:
		if err := wallets.UpdateVerification(change.WalletID.String, models.WalletVerificationApproved, nil, tx); err != nil {
			return "", err
		}

	case models.WalletChangeUpdate:
		if err := wallets.UpdateDetails(change.WalletID.String, change.Label, change.Network, change.Address, tx); err != nil {
			return "", err
		}
		if err := wallets.UpdateVerification(change.WalletID.String, models.WalletVerificationApproved, nil, tx); err != nil {
			return "", err
		}

	case models.WalletChangeDelete:
		if err := wallets.Delete(change.WalletID.String, tx); err != nil {
			return "", err
		}
	}

	return fmt.Sprintf("wallet %s %s approved", change.WalletID.String, change.ChangeType), nil
}

// On rejection the wallet is marked rejected with the reason; a rejected
// delete instead restores the verification status the wallet had before
// the request was filed.
func (h *walletChangeHandler) OnReject(tx *sql.Tx, req *models.ApprovalRequest, reason string, actor models.Actor) (string, error) {
	change := req.Payload.(*models.WalletChangeRequest)
	wallets := h.engine.db.CryptoWallet()

	if change.ChangeType == models.WalletChangeDelete {
		prior := models.WalletVerificationApproved
		if change.PriorVerificationStatus.Valid {
			prior = change.PriorVerificationStatus.String
		}
		if err := wallets.UpdateVerification(change.WalletID.String, prior, nil, tx); err != nil {
			return "", err
		}
		return fmt.Sprintf("wallet %s delete rejected, status restored to %s", change.WalletID.String, prior), nil
	}

	if err := wallets.UpdateVerification(change.WalletID.String, models.WalletVerificationRejected, &reason, tx); err != nil {
		return "", err
	}

	return fmt.Sprintf("wallet %s %s rejected", change.WalletID.String, change.ChangeType), nil
}

func (h *walletChangeHandler) MarkReviewed(tx *sql.Tx, id, status string, actor models.Actor, note *string) error {
	updated, err := h.engine.db.WalletChange().MarkReviewed(id, status, actor.ID, note, tx)
	if err != nil {
		return err
	}
	if !updated {
		return &ConflictError{Message: "request was reviewed by another governor"}
	}
	return nil
}
